package shell

import "github.com/vango-dev/evalboard/pkg/router"

// Client message types.
const (
	MsgNavigate = "navigate"
	MsgBack     = "back"
	MsgForward  = "forward"
)

// Server message types.
const (
	MsgHello   = "hello"
	MsgState   = "state"
	MsgAborted = "aborted"
	MsgError   = "error"
)

// Error codes carried by error and aborted messages.
const (
	CodeBadRequest = "bad_request"
	CodeNoHistory  = "no_history"
)

// ClientMessage is a message received on a navigation session.
type ClientMessage struct {
	Type    string        `json:"type"`
	Path    string        `json:"path,omitempty"`
	Origin  router.Origin `json:"origin"`
	Replace bool          `json:"replace,omitempty"`
}

// ServerMessage is a message sent on a navigation session. Seq echoes the
// sequence number of the client message being answered.
type ServerMessage struct {
	Type         string `json:"type"`
	Seq          uint64 `json:"seq,omitempty"`
	Session      string `json:"session,omitempty"`
	Requested    string `json:"requested,omitempty"`
	Target       string `json:"target,omitempty"`
	Hops         int    `json:"hops,omitempty"`
	Page         *Page  `json:"page,omitempty"`
	Code         string `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
	CanGoBack    bool   `json:"canGoBack,omitempty"`
	CanGoForward bool   `json:"canGoForward,omitempty"`
}

// Page describes a committed navigation state to the client.
type Page struct {
	Path    string   `json:"path"`
	Name    string   `json:"name,omitempty"`
	View    string   `json:"view"`
	Title   string   `json:"title,omitempty"`
	Panels  []string `json:"panels,omitempty"`
	Charts  string   `json:"charts,omitempty"`
	Layouts []string `json:"layouts,omitempty"`
}

// RouteInfo describes one route table entry.
type RouteInfo struct {
	Path    string   `json:"path"`
	Name    string   `json:"name,omitempty"`
	Kind    string   `json:"kind"`
	View    string   `json:"view,omitempty"`
	Target  string   `json:"target,omitempty"`
	Layouts []string `json:"layouts,omitempty"`
}

// Resolution is the result of a dry-run navigation.
type Resolution struct {
	Requested string `json:"requested"`
	Status    string `json:"status"`
	Target    string `json:"target,omitempty"`
	Hops      int    `json:"hops"`
	Page      *Page  `json:"page,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}
