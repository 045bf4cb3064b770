package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/vango-dev/evalboard/internal/config"
	"github.com/vango-dev/evalboard/pkg/router"
	"github.com/vango-dev/evalboard/pkg/telemetry"
	"github.com/vango-dev/evalboard/pkg/view"
)

// Shell hosts the dashboard: it owns the route table, the guard chain
// and the observers, and serves them over HTTP and WebSocket.
type Shell struct {
	cfg    *config.Config
	logger *slog.Logger
	sink   telemetry.Sink
	charts Charts

	views    *view.Registry
	table    *router.Table
	guards   *router.Chain
	observer router.Observer

	metrics      *telemetry.Metrics
	promRegistry *prometheus.Registry

	tracerProvider trace.TracerProvider
	userGuards     []router.Guard

	upgrader websocket.Upgrader
	sessions sync.Map // id -> *session
	active   atomic.Int64
	served   atomic.Uint64
}

// Option configures a Shell.
type Option func(*Shell)

// WithCharts injects the charting handle passed to every view.
func WithCharts(c Charts) Option {
	return func(s *Shell) {
		s.charts = c
	}
}

// WithLogger sets the logger. By default one is built from the
// configuration and writes to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = l
	}
}

// WithSink sets the error and warning sink. By default a LogSink is used,
// enabled when debug logging is on.
func WithSink(sink telemetry.Sink) Option {
	return func(s *Shell) {
		s.sink = sink
	}
}

// WithGuard registers a navigation guard after the built-in ones.
func WithGuard(g router.Guard) Option {
	return func(s *Shell) {
		s.userGuards = append(s.userGuards, g)
	}
}

// WithTracerProvider sets the tracer provider used when tracing is enabled.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Shell) {
		s.tracerProvider = tp
	}
}

// New builds a shell from cfg. A nil cfg means config.New(). Route table
// problems are returned as coded configuration errors.
func New(cfg *config.Config, opts ...Option) (*Shell, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Shell{
		cfg:    cfg,
		charts: DefaultCharts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = NewLogger(os.Stderr, cfg.LogFormat, cfg.Debug())
	}
	if s.sink == nil {
		s.sink = telemetry.NewLogSink(s.logger, cfg.Debug())
	}

	s.views = view.NewRegistry()
	s.views.
		MustRegister("Layout", Layout(s.charts)).
		MustRegister("AccuracyAnalysis", AccuracyAnalysis(s.charts)).
		MustRegister("SystemPerformance", SystemPerformance(s.charts))

	table, err := cfg.BuildTable(s.views)
	if err != nil {
		return nil, err
	}
	s.table = table
	for _, r := range table.Shadowed() {
		s.sink.OnWarning(fmt.Sprintf("route %q is shadowed by an earlier route with the same path", r.Path), "route table")
	}

	s.guards = router.NewChain(router.WithGuardTimeout(cfg.Navigation.GuardTimeout.Std()))
	s.guards.Register(s.traceGuard("current-route", router.GuardFunc(s.logCurrentRoute)))
	for i, g := range s.userGuards {
		s.guards.Register(s.traceGuard(fmt.Sprintf("guard-%d", i), g))
	}

	observers := []router.Observer{telemetry.NewLogObserver(s.logger)}
	if cfg.Metrics.Enabled {
		s.promRegistry = prometheus.NewRegistry()
		s.metrics = telemetry.NewPrometheus(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(s.promRegistry),
		)
		observers = append(observers, s.metrics)
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, telemetry.OpenTelemetry(s.otelOptions()...))
	}
	s.observer = telemetry.Observers(observers...)

	s.logger.Debug("app initialized",
		"name", cfg.Name,
		"mode", cfg.Mode,
		"routes", table.Len(),
		"guards", s.guards.Len(),
	)
	return s, nil
}

func (s *Shell) otelOptions() []telemetry.OTelOption {
	opts := []telemetry.OTelOption{telemetry.WithTracerName("evalboard")}
	if s.tracerProvider != nil {
		opts = append(opts, telemetry.WithTracerProvider(s.tracerProvider))
	}
	return opts
}

func (s *Shell) traceGuard(name string, g router.Guard) router.Guard {
	if !s.cfg.Tracing.Enabled {
		return g
	}
	return telemetry.TraceGuard(name, g, s.otelOptions()...)
}

// logCurrentRoute logs every navigation target before the other guards run.
func (s *Shell) logCurrentRoute(ctx context.Context, to router.Request, from router.State) (router.Decision, error) {
	s.logger.DebugContext(ctx, "current route", "to", to.Path, "from", from.Path, "origin", to.Origin.String())
	return router.Proceed(), nil
}

// NewRouter returns a router sharing the shell's table, guards and
// observers. Each client session gets its own.
func (s *Shell) NewRouter() *router.Router {
	return router.New(s.table,
		router.WithGuards(s.guards),
		router.WithObserver(s.observer),
		router.WithRedirectLimit(s.cfg.Navigation.RedirectLimit),
		router.WithLogger(s.logger),
	)
}

// newDryRouter returns a router that emits no events.
func (s *Shell) newDryRouter() *router.Router {
	return router.New(s.table,
		router.WithGuards(s.guards),
		router.WithRedirectLimit(s.cfg.Navigation.RedirectLimit),
		router.WithLogger(s.logger),
	)
}

// Table returns the route table.
func (s *Shell) Table() *router.Table { return s.table }

// Views returns the view registry.
func (s *Shell) Views() *view.Registry { return s.views }

// Config returns the configuration.
func (s *Shell) Config() *config.Config { return s.cfg }

// Logger returns the logger.
func (s *Shell) Logger() *slog.Logger { return s.logger }

// ActiveSessions returns the number of connected navigation sessions.
func (s *Shell) ActiveSessions() int64 { return s.active.Load() }

// page describes a committed state.
func (s *Shell) page(st router.State) *Page {
	p := &Page{Path: st.Path, Name: st.Name}
	if name, ok := s.views.NameOf(st.View); ok {
		p.View = name
	}
	if v, ok := st.View.(*View); ok {
		p.Title = v.Title
		p.Panels = v.Panels
		if v.Charts != nil {
			p.Charts = v.Charts.Library()
		}
	}
	for _, l := range st.Layouts {
		if name, ok := s.views.NameOf(l); ok {
			p.Layouts = append(p.Layouts, name)
		}
	}
	return p
}

// NewLogger builds a slog logger writing text or JSON to w.
func NewLogger(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
