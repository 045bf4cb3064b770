package shell

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/evalboard/internal/config"
	"github.com/vango-dev/evalboard/pkg/router"
)

func blockPerformance() Option {
	return WithGuard(router.GuardFunc(func(ctx context.Context, to router.Request, from router.State) (router.Decision, error) {
		if to.Path == "/performance" {
			return router.Abort(), nil
		}
		return router.Proceed(), nil
	}))
}

func TestHealthz(t *testing.T) {
	sh := newTestShell(t, nil)
	rec := get(t, sh.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestPageFallback(t *testing.T) {
	sh := newTestShell(t, nil, blockPerformance())
	h := sh.Handler()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLoc    string
	}{
		{"index redirects", "/", http.StatusFound, "/accuracy"},
		{"query preserved", "/?run=42", http.StatusFound, "/accuracy?run=42"},
		{"trailing slash canonicalized", "/accuracy/", http.StatusFound, "/accuracy"},
		{"page served", "/accuracy", http.StatusOK, ""},
		{"unknown path", "/missing", http.StatusNotFound, ""},
		{"guard abort", "/performance", http.StatusConflict, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantLoc != "" {
				if got := rec.Header().Get("Location"); got != tt.wantLoc {
					t.Errorf("Location = %q, want %q", got, tt.wantLoc)
				}
			}
		})
	}

	page := decode[Page](t, get(t, h, "/accuracy"))
	if page.Path != "/accuracy" || page.View != "AccuracyAnalysis" || page.Name != "AccuracyAnalysis" {
		t.Errorf("page = %+v", page)
	}
	if len(page.Layouts) != 1 || page.Layouts[0] != "Layout" {
		t.Errorf("page.Layouts = %v, want [Layout]", page.Layouts)
	}
	if page.Charts != string(DefaultCharts) || len(page.Panels) == 0 {
		t.Errorf("page charts/panels = %q/%v", page.Charts, page.Panels)
	}

	notFound := decode[map[string]string](t, get(t, h, "/missing"))
	if notFound["code"] != "not_found" {
		t.Errorf("not found body = %v", notFound)
	}
}

func TestPageRedirectLoop(t *testing.T) {
	cfg := config.New()
	cfg.Routes = []config.RouteConfig{
		{Path: "/a", Redirect: "/b"},
		{Path: "/b", Redirect: "/a"},
	}
	sh := newTestShell(t, cfg)
	rec := get(t, sh.Handler(), "/a")
	if rec.Code != http.StatusLoopDetected {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusLoopDetected)
	}
	if body := decode[map[string]string](t, rec); body["code"] != "redirect_loop" {
		t.Errorf("body = %v", body)
	}
}

func TestAPIRoutes(t *testing.T) {
	sh := newTestShell(t, nil)
	rec := get(t, sh.Handler(), "/api/routes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[struct {
		Routes []RouteInfo `json:"routes"`
	}](t, rec)

	if len(body.Routes) != 3 {
		t.Fatalf("routes = %+v, want 3", body.Routes)
	}
	byPath := map[string]RouteInfo{}
	for _, r := range body.Routes {
		byPath[r.Path] = r
	}
	if r := byPath["/"]; r.Kind != "redirect" || r.Target != "/accuracy" {
		t.Errorf("/ = %+v", r)
	}
	if r := byPath["/performance"]; r.Kind != "leaf" || r.View != "SystemPerformance" || len(r.Layouts) != 1 {
		t.Errorf("/performance = %+v", r)
	}
}

func TestAPIResolve(t *testing.T) {
	sh := newTestShell(t, nil, blockPerformance())
	h := sh.Handler()

	res := decode[Resolution](t, get(t, h, "/api/resolve?path=/"))
	if res.Status != "committed" || res.Hops != 1 || res.Page == nil || res.Page.Path != "/accuracy" {
		t.Errorf("resolve / = %+v", res)
	}

	res = decode[Resolution](t, get(t, h, "/api/resolve?path=/performance"))
	if res.Status != "aborted" || res.Page != nil {
		t.Errorf("resolve /performance = %+v", res)
	}

	res = decode[Resolution](t, get(t, h, "/api/resolve?path=/nope"))
	if res.Status != "failed" || res.Code != "not_found" {
		t.Errorf("resolve /nope = %+v", res)
	}

	if rec := get(t, h, "/api/resolve"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d, want 400", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	sh := newTestShell(t, nil)
	h := sh.Handler()
	get(t, h, "/accuracy")
	get(t, h, "/missing")

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`evalboard_navigation_total{origin="user",status="committed"} 1`,
		`evalboard_navigation_total{origin="user",status="failed"} 1`,
		`evalboard_navigation_errors_total{kind="not_found"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.New()
	cfg.Metrics.Enabled = false
	sh := newTestShell(t, cfg)
	if rec := get(t, sh.Handler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRecovererReportsToSink(t *testing.T) {
	sink := &recordingSink{}
	sh := newTestShell(t, nil, WithSink(sink))

	h := sh.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if len(sink.errors) != 1 || sink.errors[0].Error() != "boom" {
		t.Errorf("sink errors = %v", sink.errors)
	}
}
