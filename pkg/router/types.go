package router

import (
	"fmt"
	"time"
)

// ViewRef is an opaque handle to a renderable unit.
// The router hands it back in State and never looks inside.
type ViewRef any

// Kind identifies what a route definition does.
type Kind int

const (
	// KindLeaf renders a view at an exact path.
	KindLeaf Kind = iota

	// KindRedirect aliases one path to another.
	KindRedirect

	// KindLayoutGroup wraps a set of child routes under a shared layout.
	KindLayoutGroup
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindRedirect:
		return "redirect"
	case KindLayoutGroup:
		return "layout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RouteDefinition is one entry of the static route configuration.
// Exactly one of View, Target or Children is set, matching Kind.
type RouteDefinition struct {
	// Path is absolute ("/accuracy") or relative to the parent group.
	// An empty path inside a group denotes the group path itself.
	Path string

	// Name optionally identifies the route; names are unique per table.
	Name string

	Kind Kind

	// View is rendered by a leaf.
	View ViewRef

	// Target is the path a redirect points at.
	Target string

	// Layout optionally wraps every child of a layout group.
	Layout ViewRef

	// Children are the routes of a layout group, in priority order.
	Children []RouteDefinition
}

// Leaf defines a route that renders view at path.
func Leaf(path string, view ViewRef) RouteDefinition {
	return RouteDefinition{Path: path, Kind: KindLeaf, View: view}
}

// Redirect defines a route that sends path on to target.
func Redirect(path, target string) RouteDefinition {
	return RouteDefinition{Path: path, Kind: KindRedirect, Target: target}
}

// Group defines a layout group at path wrapping children in layout.
// layout may be nil for a pure grouping.
func Group(path string, layout ViewRef, children ...RouteDefinition) RouteDefinition {
	return RouteDefinition{Path: path, Kind: KindLayoutGroup, Layout: layout, Children: children}
}

// Named returns a copy of d carrying the given route name.
func (d RouteDefinition) Named(name string) RouteDefinition {
	d.Name = name
	return d
}

// Route is a resolved entry of a built Table.
type Route struct {
	// Path is the canonical absolute path.
	Path string

	Name string

	// Kind is KindLeaf or KindRedirect; layout groups are flattened away.
	Kind Kind

	View ViewRef

	// Target is the canonical redirect target.
	Target string

	// Layouts are the enclosing layout views, root to leaf.
	Layouts []ViewRef
}

// Origin describes what triggered a navigation.
type Origin int

const (
	// OriginUser is a link activation or typed URL.
	OriginUser Origin = iota

	// OriginProgrammatic is a navigate call made by application code.
	OriginProgrammatic

	// OriginHistory is a back/forward traversal.
	OriginHistory
)

// String returns the wire name of the origin.
func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginProgrammatic:
		return "programmatic"
	case OriginHistory:
		return "history"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// ParseOrigin parses a wire origin name. An empty string is OriginUser.
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "", "user":
		return OriginUser, nil
	case "programmatic":
		return OriginProgrammatic, nil
	case "history":
		return OriginHistory, nil
	default:
		return 0, fmt.Errorf("router: unknown origin %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(b []byte) error {
	parsed, err := ParseOrigin(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Request is a single navigation trigger. It is not modified by the router.
type Request struct {
	Path   string
	Origin Origin

	// Replace commits without adding a history entry.
	Replace bool
}

// State is the committed navigation state. The zero State means nothing
// has been committed yet.
type State struct {
	Path    string
	Name    string
	View    ViewRef
	Layouts []ViewRef
}

// IsZero reports whether no navigation has been committed.
func (s State) IsZero() bool {
	return s.Path == ""
}

// Status is the final status of a navigation.
type Status int

const (
	// StatusCommitted means the target became the current state.
	StatusCommitted Status = iota

	// StatusAborted means a guard (or a newer navigation) stopped it.
	StatusAborted

	// StatusFailed means the target could not be resolved.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of Navigate.
type Outcome struct {
	Status Status

	// State is the committed state, or the unchanged current state when the
	// navigation did not commit.
	State State

	// Requested is the path the caller asked for.
	Requested string

	// Target is the last path the navigation was heading to.
	Target string

	// Hops counts the redirects followed, from the table and from guards.
	Hops int
}

// Committed reports whether the navigation committed.
func (o Outcome) Committed() bool {
	return o.Status == StatusCommitted
}

// Event is the observability record emitted once per navigation attempt.
type Event struct {
	Requested string
	// Path is the final target path, whether or not it committed.
	Path     string
	Origin   Origin
	Status   Status
	Hops     int
	Err      error
	Started  time.Time
	Duration time.Duration
}
