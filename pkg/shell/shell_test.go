package shell

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/evalboard/internal/config"
	"github.com/vango-dev/evalboard/pkg/router"
)

type recordingSink struct {
	mu       sync.Mutex
	errors   []error
	warnings []string
}

func (s *recordingSink) OnError(err error, info string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *recordingSink) OnWarning(msg, trace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestShell(t *testing.T, cfg *config.Config, opts ...Option) *Shell {
	t.Helper()
	if cfg == nil {
		cfg = config.New()
	}
	cfg.ResolveMode(func(string) string { return "" })
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	sh, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return sh
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNewRegistersDashboardViews(t *testing.T) {
	sh := newTestShell(t, nil, WithCharts(ChartLibrary("vega")))

	names := sh.Views().Names()
	want := []string{"Layout", "AccuracyAnalysis", "SystemPerformance"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Views().Names() = %v, want %v", names, want)
	}
	v, _ := sh.Views().Get("AccuracyAnalysis")
	if got := v.(*View).Charts.Library(); got != "vega" {
		t.Errorf("injected charts = %q, want vega", got)
	}
	if sh.Table().Len() != 3 {
		t.Errorf("Table().Len() = %d, want 3", sh.Table().Len())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Routes = []config.RouteConfig{{Path: "/x", View: "Missing"}}
	if _, err := New(cfg, WithLogger(quietLogger())); err == nil {
		t.Fatal("expected error for unknown view")
	}

	cfg = config.New()
	cfg.LogFormat = "xml"
	if _, err := New(cfg, WithLogger(quietLogger())); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestShadowedRoutesAreReported(t *testing.T) {
	cfg := config.New()
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Path: "/accuracy", View: "SystemPerformance"})
	sink := &recordingSink{}

	newTestShell(t, cfg, WithSink(sink))

	if len(sink.warnings) != 1 || !strings.Contains(sink.warnings[0], `"/accuracy"`) {
		t.Errorf("warnings = %v, want one about /accuracy", sink.warnings)
	}
}

func TestRouterSharesTableAndGuards(t *testing.T) {
	calls := 0
	sh := newTestShell(t, nil, WithGuard(router.GuardFunc(func(ctx context.Context, to router.Request, from router.State) (router.Decision, error) {
		calls++
		return router.Proceed(), nil
	})))

	r := sh.NewRouter()
	out, err := r.Navigate(context.Background(), router.Request{Path: "/"})
	if err != nil {
		t.Fatalf("Navigate error: %v", err)
	}
	if out.State.Path != "/accuracy" || out.Hops != 1 {
		t.Errorf("outcome = %+v", out)
	}
	if calls != 1 {
		t.Errorf("user guard calls = %d, want 1", calls)
	}
	if r.Table() != sh.Table() {
		t.Error("router should share the shell table")
	}
}

func TestNewLogger(t *testing.T) {
	var buf strings.Builder
	NewLogger(&buf, config.LogFormatJSON, false).Debug("hidden")
	NewLogger(&buf, config.LogFormatJSON, true).Debug("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record written without debug logging")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("JSON output = %q", out)
	}

	buf.Reset()
	NewLogger(&buf, config.LogFormatText, false).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestDebugLoggingReportsInitialization(t *testing.T) {
	var buf strings.Builder
	cfg := config.New()
	cfg.ResolveMode(func(string) string { return config.ModeDevelopment })
	if _, err := New(cfg, WithLogger(NewLogger(&buf, config.LogFormatText, cfg.Debug()))); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !strings.Contains(buf.String(), "app initialized") {
		t.Errorf("log = %q, want app initialized", buf.String())
	}
}
