package view

import (
	"testing"
)

type chartView struct{ title string }

func TestRegistry(t *testing.T) {
	acc := &chartView{title: "Accuracy"}
	perf := &chartView{title: "Performance"}

	r := NewRegistry()
	r.MustRegister("AccuracyAnalysis", acc).MustRegister("SystemPerformance", perf)

	got, ok := r.Get("AccuracyAnalysis")
	if !ok || got != acc {
		t.Errorf("Get(AccuracyAnalysis) = %v, %v", got, ok)
	}
	if _, ok := r.Get("Missing"); ok {
		t.Error("Get(Missing) should fail")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "AccuracyAnalysis" || names[1] != "SystemPerformance" {
		t.Errorf("Names() = %v", names)
	}

	if name, ok := r.NameOf(perf); !ok || name != "SystemPerformance" {
		t.Errorf("NameOf(perf) = %q, %v", name, ok)
	}
	if _, ok := r.NameOf(&chartView{title: "Performance"}); ok {
		t.Error("NameOf matched a different pointer")
	}
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("", "x"); err == nil {
		t.Error("empty name accepted")
	}
	if err := r.Register("nil", nil); err == nil {
		t.Error("nil view accepted")
	}
	if err := r.Register("a", "x"); err != nil {
		t.Fatalf("Register(a) error: %v", err)
	}
	if err := r.Register("a", "y"); err == nil {
		t.Error("duplicate name accepted")
	}
}

func TestNameOfUncomparable(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("slice", []string{"a"})

	if _, ok := r.NameOf([]string{"a"}); ok {
		t.Error("uncomparable view should not be found")
	}
}
