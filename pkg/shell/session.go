package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/vango-dev/evalboard/pkg/router"
	"github.com/vango-dev/evalboard/pkg/telemetry"
)

const (
	maxMessageSize = 4096
	writeTimeout   = 10 * time.Second
)

// session is one WebSocket client with its own router. The read loop begins
// each navigation in arrival order and runs it in its own goroutine, so a
// newer message supersedes the navigation still in flight.
type session struct {
	id     string
	conn   *websocket.Conn
	router *router.Router
	shell  *Shell
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	wg      sync.WaitGroup
	seq     atomic.Uint64
	closed  atomic.Bool
}

func (s *Shell) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		router: s.NewRouter(),
		shell:  s,
		ctx:    ctx,
		cancel: cancel,
	}
	sess.logger = s.logger.With("session", sess.id)

	s.sessions.Store(sess.id, sess)
	s.active.Inc()
	s.served.Inc()
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	sess.logger.Debug("session started", "remote", r.RemoteAddr, "total", s.served.Load())

	defer func() {
		sess.close()
		s.sessions.Delete(sess.id)
		s.active.Dec()
		if s.metrics != nil {
			s.metrics.SessionEnded()
		}
		sess.logger.Debug("session ended")
	}()

	if err := sess.write(ServerMessage{Type: MsgHello, Session: sess.id}); err != nil {
		return
	}
	sess.readLoop()
}

// readLoop reads client messages until the connection closes.
func (ss *session) readLoop() {
	for {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				ss.logger.Error("read error", "error", err)
			}
			return
		}

		seq := ss.seq.Inc()
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ss.writeError(seq, CodeBadRequest, fmt.Errorf("invalid message: %w", err))
			continue
		}

		nav, err := ss.begin(msg)
		if err != nil {
			code := CodeBadRequest
			if errors.Is(err, router.ErrNoHistory) {
				code = CodeNoHistory
			}
			ss.writeError(seq, code, err)
			continue
		}

		ss.wg.Add(1)
		go func() {
			defer ss.wg.Done()
			out, err := nav.Run()
			ss.reply(seq, out, err)
		}()
	}
}

// begin reserves the message's place in the router's order. It runs on the
// read loop so the last message received is the one that can commit.
func (ss *session) begin(msg ClientMessage) (*router.Navigation, error) {
	switch msg.Type {
	case MsgNavigate:
		return ss.router.Begin(ss.ctx, router.Request{Path: msg.Path, Origin: msg.Origin, Replace: msg.Replace}), nil
	case MsgBack:
		return ss.router.BeginGo(ss.ctx, -1)
	case MsgForward:
		return ss.router.BeginGo(ss.ctx, 1)
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (ss *session) reply(seq uint64, out router.Outcome, err error) {
	hist := ss.router.History()
	msg := ServerMessage{
		Seq:          seq,
		Requested:    out.Requested,
		Target:       out.Target,
		Hops:         out.Hops,
		CanGoBack:    hist.CanGoBack(),
		CanGoForward: hist.CanGoForward(),
	}
	switch out.Status {
	case router.StatusCommitted:
		msg.Type = MsgState
		msg.Page = ss.shell.page(out.State)
	case router.StatusAborted:
		msg.Type = MsgAborted
	default:
		msg.Type = MsgError
	}
	if err != nil {
		msg.Code = telemetry.ErrorKind(err)
		msg.Error = err.Error()
	}
	_ = ss.write(msg)
}

func (ss *session) writeError(seq uint64, code string, err error) {
	_ = ss.write(ServerMessage{Type: MsgError, Seq: seq, Code: code, Error: err.Error()})
}

// write serializes writes to the connection.
func (ss *session) write(msg ServerMessage) error {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()

	if ss.closed.Load() {
		return websocket.ErrCloseSent
	}
	ss.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ss.conn.WriteJSON(msg); err != nil {
		ss.logger.Debug("write error", "error", err)
		return err
	}
	return nil
}

// close cancels in-flight navigations, waits for them and closes the
// connection. It is safe to call more than once.
func (ss *session) close() {
	if !ss.closed.CompareAndSwap(false, true) {
		return
	}
	ss.cancel()
	ss.wg.Wait()

	ss.writeMu.Lock()
	ss.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = ss.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ss.writeMu.Unlock()
	ss.conn.Close()
}

// closeSessions closes every live session.
func (s *Shell) closeSessions() {
	s.sessions.Range(func(_, v any) bool {
		v.(*session).shutdown()
		return true
	})
}

// shutdown unblocks the read loop; the handler then runs close.
func (ss *session) shutdown() {
	ss.cancel()
	ss.writeMu.Lock()
	ss.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = ss.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
	ss.writeMu.Unlock()
	ss.conn.SetReadDeadline(time.Now())
}
