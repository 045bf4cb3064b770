package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/evalboard/pkg/router"
	"github.com/vango-dev/evalboard/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Handler returns the HTTP handler of the shell.
//
// Routes:
//
//	GET /healthz          liveness probe
//	GET /metrics          Prometheus metrics, when enabled
//	GET /api/routes       the route table
//	GET /api/resolve      dry-run navigation, ?path=
//	GET /ws               navigation session
//	GET /*                history-mode page resolution
func (s *Shell) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.promRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)
		r.Get("/resolve", s.handleResolve)
	})
	r.Get("/ws", s.handleWebSocket)
	r.Get("/*", s.handlePage)

	return r
}

// Run serves the shell on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Shell) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run but uses an existing listener.
func (s *Shell) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.closeSessions()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Shell) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverer turns handler panics into 500 responses and reports them to
// the sink.
func (s *Shell) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			s.sink.OnError(err, fmt.Sprintf("%s %s\n%s", r.Method, r.URL.Path, debug.Stack()))
			s.logger.Error("handler panic", "path", r.URL.Path, "error", err)
			if r.Header.Get("Connection") != "Upgrade" {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Shell) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.active.Load(),
	})
}

func (s *Shell) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.table.Routes()
	out := struct {
		Routes   []RouteInfo `json:"routes"`
		Shadowed []RouteInfo `json:"shadowed,omitempty"`
	}{
		Routes: make([]RouteInfo, 0, len(routes)),
	}
	for _, rt := range routes {
		out.Routes = append(out.Routes, s.routeInfo(rt))
	}
	for _, rt := range s.table.Shadowed() {
		out.Shadowed = append(out.Shadowed, s.routeInfo(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Shell) routeInfo(rt router.Route) RouteInfo {
	info := RouteInfo{
		Path:   rt.Path,
		Name:   rt.Name,
		Kind:   rt.Kind.String(),
		Target: rt.Target,
	}
	if name, ok := s.views.NameOf(rt.View); ok {
		info.View = name
	}
	for _, l := range rt.Layouts {
		if name, ok := s.views.NameOf(l); ok {
			info.Layouts = append(info.Layouts, name)
		}
	}
	return info
}

func (s *Shell) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, Resolution{Code: CodeBadRequest, Error: "missing path parameter"})
		return
	}

	out, err := s.newDryRouter().Navigate(r.Context(), router.Request{Path: path, Origin: router.OriginUser})
	res := Resolution{
		Requested: path,
		Status:    out.Status.String(),
		Target:    out.Target,
		Hops:      out.Hops,
	}
	if out.Committed() {
		res.Page = s.page(out.State)
	}
	if err != nil {
		res.Code = telemetry.ErrorKind(err)
		res.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePage resolves a deep link the way a history-mode client would on
// first load.
func (s *Shell) handlePage(w http.ResponseWriter, r *http.Request) {
	out, err := s.NewRouter().Navigate(r.Context(), router.Request{Path: r.URL.Path, Origin: router.OriginUser})

	switch out.Status {
	case router.StatusCommitted:
		if out.State.Path != r.URL.Path {
			location := out.State.Path
			if r.URL.RawQuery != "" {
				location += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, location, http.StatusFound)
			return
		}
		writeJSON(w, http.StatusOK, s.page(out.State))

	case router.StatusAborted:
		msg := map[string]string{"error": "navigation aborted", "path": out.Target}
		if err != nil {
			msg["code"] = telemetry.ErrorKind(err)
			msg["error"] = err.Error()
		}
		writeJSON(w, http.StatusConflict, msg)

	default:
		status := http.StatusNotFound
		if errors.Is(err, router.ErrRedirectLoop) {
			status = http.StatusLoopDetected
		}
		writeJSON(w, status, map[string]string{
			"error": errorString(err),
			"code":  telemetry.ErrorKind(err),
			"path":  out.Target,
		})
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
