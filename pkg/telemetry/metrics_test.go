package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/evalboard/pkg/router"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusRecordsNavigations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(WithRegistry(reg))
	ctx := context.Background()

	m.ObserveNavigation(ctx, router.Event{Path: "/accuracy", Status: router.StatusCommitted, Origin: router.OriginUser, Hops: 1, Duration: time.Millisecond})
	m.ObserveNavigation(ctx, router.Event{Path: "/accuracy", Status: router.StatusCommitted, Origin: router.OriginUser})
	m.ObserveNavigation(ctx, router.Event{
		Path:   "/missing",
		Status: router.StatusFailed,
		Origin: router.OriginProgrammatic,
		Err:    &router.NavigationError{Kind: router.ErrRouteNotFound, Path: "/missing", Guard: -1},
	})

	if got := metricCounterValue(t, m.navigations.WithLabelValues("committed", "user")); got != 2 {
		t.Errorf("committed/user = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.navigations.WithLabelValues("failed", "programmatic")); got != 1 {
		t.Errorf("failed/programmatic = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.errors.WithLabelValues("not_found")); got != 1 {
		t.Errorf("errors{not_found} = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.duration.WithLabelValues("committed")); got != 2 {
		t.Errorf("duration{committed} count = %d, want 2", got)
	}
	if got := metricHistogramCount(t, m.hops); got != 3 {
		t.Errorf("hops count = %d, want 3", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"evalboard_navigation_total",
		"evalboard_navigation_duration_seconds",
		"evalboard_navigation_redirect_hops",
		"evalboard_navigation_errors_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered; have %v", want, names)
		}
	}
}

func TestPrometheusSessionGauge(t *testing.T) {
	m := NewPrometheus(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()

	if got := metricGaugeValue(t, m.activeSessions); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&router.NavigationError{Kind: router.ErrRouteNotFound}, "not_found"},
		{&router.NavigationError{Kind: router.ErrRedirectLoop}, "redirect_loop"},
		{&router.NavigationError{Kind: router.ErrGuardTimeout}, "guard_timeout"},
		{&router.NavigationError{Kind: router.ErrGuardFailed, Err: errors.New("x")}, "guard_error"},
		{&router.NavigationError{Kind: router.ErrSuperseded}, "superseded"},
		{fmt.Errorf("wrapped: %w", router.ErrRedirectLoop), "redirect_loop"},
		{errors.New("other"), "other"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
