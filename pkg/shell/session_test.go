package shell

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/evalboard/internal/config"
	"github.com/vango-dev/evalboard/pkg/router"
)

func dial(t *testing.T, sh *Shell) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(sh.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := readMessage(t, conn)
	if hello.Type != MsgHello || hello.Session == "" {
		t.Fatalf("first message = %+v, want hello with session id", hello)
	}
	return conn, srv
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg any) ServerMessage {
	t.Helper()
	send(t, conn, msg)
	return readMessage(t, conn)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionNavigation(t *testing.T) {
	sh := newTestShell(t, nil)
	conn, _ := dial(t, sh)

	msg := roundTrip(t, conn, ClientMessage{Type: MsgNavigate, Path: "/"})
	if msg.Type != MsgState || msg.Seq != 1 {
		t.Fatalf("navigate / = %+v", msg)
	}
	if msg.Page.Path != "/accuracy" || msg.Page.View != "AccuracyAnalysis" || msg.Hops != 1 {
		t.Errorf("page = %+v, hops = %d", msg.Page, msg.Hops)
	}
	if msg.CanGoBack {
		t.Error("CanGoBack should be false after the first navigation")
	}

	msg = roundTrip(t, conn, map[string]any{"type": "navigate", "path": "/performance", "origin": "programmatic"})
	if msg.Type != MsgState || msg.Page.Path != "/performance" || !msg.CanGoBack {
		t.Fatalf("navigate /performance = %+v", msg)
	}

	msg = roundTrip(t, conn, ClientMessage{Type: MsgNavigate, Path: "/missing"})
	if msg.Type != MsgError || msg.Code != "not_found" {
		t.Errorf("navigate /missing = %+v", msg)
	}

	msg = roundTrip(t, conn, ClientMessage{Type: MsgBack})
	if msg.Type != MsgState || msg.Page.Path != "/accuracy" || !msg.CanGoForward {
		t.Errorf("back = %+v", msg)
	}

	msg = roundTrip(t, conn, ClientMessage{Type: MsgForward})
	if msg.Type != MsgState || msg.Page.Path != "/performance" {
		t.Errorf("forward = %+v", msg)
	}

	msg = roundTrip(t, conn, ClientMessage{Type: MsgForward})
	if msg.Type != MsgError || msg.Code != CodeNoHistory {
		t.Errorf("forward past end = %+v", msg)
	}
}

func TestSessionBadMessages(t *testing.T) {
	sh := newTestShell(t, nil)
	conn, _ := dial(t, sh)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgError || msg.Code != CodeBadRequest {
		t.Errorf("invalid json = %+v", msg)
	}

	msg := roundTrip(t, conn, map[string]any{"type": "navigate", "path": "/", "origin": "telepathy"})
	if msg.Type != MsgError || msg.Code != CodeBadRequest {
		t.Errorf("invalid origin = %+v", msg)
	}

	msg = roundTrip(t, conn, ClientMessage{Type: "reload"})
	if msg.Type != MsgError || msg.Code != CodeBadRequest {
		t.Errorf("unknown type = %+v", msg)
	}
}

func TestSessionSupersedesInFlightNavigation(t *testing.T) {
	entered := make(chan struct{}, 1)
	slow := WithGuard(router.GuardFunc(func(ctx context.Context, to router.Request, from router.State) (router.Decision, error) {
		if to.Path != "/performance" {
			return router.Proceed(), nil
		}
		select {
		case entered <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return router.Abort(), ctx.Err()
	}))
	sh := newTestShell(t, nil, slow)
	conn, _ := dial(t, sh)

	send(t, conn, ClientMessage{Type: MsgNavigate, Path: "/performance"})
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("guard was not entered")
	}
	send(t, conn, ClientMessage{Type: MsgNavigate, Path: "/accuracy"})

	replies := map[uint64]ServerMessage{}
	for len(replies) < 2 {
		msg := readMessage(t, conn)
		replies[msg.Seq] = msg
	}

	if first := replies[1]; first.Type != MsgAborted || first.Code != "superseded" {
		t.Errorf("superseded reply = %+v", first)
	}
	if second := replies[2]; second.Type != MsgState || second.Page.Path != "/accuracy" {
		t.Errorf("winning reply = %+v", second)
	}
}

// liveSession returns the only session of sh.
func liveSession(t *testing.T, sh *Shell) *session {
	t.Helper()
	var found *session
	waitFor(t, func() bool {
		sh.sessions.Range(func(_, v any) bool {
			found = v.(*session)
			return false
		})
		return found != nil
	})
	return found
}

func readReplies(t *testing.T, conn *websocket.Conn, n int) map[uint64]ServerMessage {
	t.Helper()
	replies := make(map[uint64]ServerMessage, n)
	for len(replies) < n {
		msg := readMessage(t, conn)
		replies[msg.Seq] = msg
	}
	return replies
}

func TestSessionLastMessageWins(t *testing.T) {
	sh := newTestShell(t, nil)
	conn, _ := dial(t, sh)
	ss := liveSession(t, sh)

	const rounds = 100
	for i := 0; i < rounds; i++ {
		send(t, conn, ClientMessage{Type: MsgNavigate, Path: "/performance"})
		send(t, conn, ClientMessage{Type: MsgNavigate, Path: "/accuracy"})

		replies := readReplies(t, conn, 2)
		last := replies[uint64(2*i+2)]
		if last.Type != MsgState || last.Page.Path != "/accuracy" {
			t.Fatalf("round %d: last reply = %+v", i, last)
		}
		if first := replies[uint64(2*i+1)]; first.Type != MsgState && first.Type != MsgAborted {
			t.Fatalf("round %d: first reply = %+v", i, first)
		}
		if got := ss.router.Current().Path; got != "/accuracy" {
			t.Fatalf("round %d: current = %q, want /accuracy", i, got)
		}
	}
}

func TestSessionQuickBacksStepTwice(t *testing.T) {
	sh := newTestShell(t, nil)
	conn, _ := dial(t, sh)
	ss := liveSession(t, sh)

	for _, p := range []string{"/accuracy", "/performance", "/accuracy"} {
		if msg := roundTrip(t, conn, ClientMessage{Type: MsgNavigate, Path: p}); msg.Type != MsgState {
			t.Fatalf("navigate %s = %+v", p, msg)
		}
	}

	send(t, conn, ClientMessage{Type: MsgBack})
	send(t, conn, ClientMessage{Type: MsgBack})
	readReplies(t, conn, 2)

	entries, index := ss.router.History().Entries()
	if index != 0 || len(entries) != 3 {
		t.Errorf("entries = %v index = %d, want cursor at 0 of 3", entries, index)
	}
	if got := ss.router.Current().Path; got != "/accuracy" {
		t.Errorf("current = %q, want /accuracy", got)
	}
}

func TestSessionCounting(t *testing.T) {
	sh := newTestShell(t, nil)
	conn, _ := dial(t, sh)

	if got := sh.ActiveSessions(); got != 1 {
		t.Errorf("ActiveSessions() = %d, want 1", got)
	}
	health := decode[map[string]any](t, get(t, sh.Handler(), "/healthz"))
	if health["sessions"] != float64(1) {
		t.Errorf("healthz sessions = %v", health["sessions"])
	}

	conn.Close()
	waitFor(t, func() bool { return sh.ActiveSessions() == 0 })
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := config.New()
	cfg.Server.Addr = "127.0.0.1:0"
	sh := newTestShell(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
