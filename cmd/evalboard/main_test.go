package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(append(args, "--no-color"), &out, &errb)
	return out.String(), errb.String(), code
}

func TestVersionShort(t *testing.T) {
	out, _, code := execute(t, "version", "--short")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out != "dev\n" {
		t.Errorf("output = %q, want %q", out, "dev\n")
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, code := execute(t, "version", "--json")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var b buildInfo
	if err := json.Unmarshal([]byte(out), &b); err != nil {
		t.Fatalf("output %q is not JSON: %v", out, err)
	}
	if b.Version != "dev" || b.Commit != "none" || b.GoVersion == "" || !strings.Contains(b.Platform, "/") {
		t.Errorf("build info = %+v", b)
	}
}

func TestVersionLine(t *testing.T) {
	out, _, code := execute(t, "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out, "evalboard dev (commit none, built unknown) go") {
		t.Errorf("output = %q", out)
	}
}

func TestInitAndRoutes(t *testing.T) {
	dir := t.TempDir()

	out, stderr, code := execute(t, "init", dir)
	if code != 0 {
		t.Fatalf("init exit code = %d: %s", code, stderr)
	}
	if !strings.Contains(out, "evalboard.json") {
		t.Errorf("init output = %q", out)
	}

	_, stderr, code = execute(t, "init", dir)
	if code == 0 || !strings.Contains(stderr, "E300") {
		t.Errorf("second init: code = %d, stderr = %q", code, stderr)
	}

	out, stderr, code = execute(t, "routes", "--config", dir)
	if code != 0 {
		t.Fatalf("routes exit code = %d: %s", code, stderr)
	}
	for _, want := range []string{"PATH", "/accuracy", "AccuracyAnalysis", "-> /accuracy", "Layout"} {
		if !strings.Contains(out, want) {
			t.Errorf("routes output missing %q:\n%s", want, out)
		}
	}
}

func TestInitTOML(t *testing.T) {
	dir := t.TempDir()
	if _, stderr, code := execute(t, "init", dir, "--format", "toml"); code != 0 {
		t.Fatalf("init exit code = %d: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "evalboard.toml")); err != nil {
		t.Fatalf("evalboard.toml not written: %v", err)
	}
	out, stderr, code := execute(t, "resolve", "/", "--config", filepath.Join(dir, "evalboard.toml"))
	if code != 0 {
		t.Fatalf("resolve exit code = %d: %s", code, stderr)
	}
	if !strings.Contains(out, "/ => /accuracy (AccuracyAnalysis)") {
		t.Errorf("resolve output = %q", out)
	}

	if _, stderr, code := execute(t, "init", dir, "--format", "yaml"); code == 0 || !strings.Contains(stderr, "unknown format") {
		t.Errorf("yaml init: code = %d, stderr = %q", code, stderr)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	execute(t, "init", dir)

	out, stderr, code := execute(t, "resolve", "/", "/performance/", "--config", dir)
	if code != 0 {
		t.Fatalf("exit code = %d: %s", code, stderr)
	}
	for _, want := range []string{
		"/ => /accuracy (AccuracyAnalysis)",
		"via / -> /accuracy",
		"/performance/ => /performance (SystemPerformance)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, code = execute(t, "resolve", "/", "--json", "--config", dir)
	if code != 0 {
		t.Fatalf("json exit code = %d", code)
	}
	var results []resolution
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(results) != 1 || results[0].Final != "/accuracy" || len(results[0].Visited) != 2 {
		t.Errorf("results = %+v", results)
	}

	_, stderr, code = execute(t, "resolve", "/missing", "--config", dir)
	if code == 0 || !strings.Contains(stderr, "E200") {
		t.Errorf("missing route: code = %d, stderr = %q", code, stderr)
	}
}

func TestMissingConfig(t *testing.T) {
	_, stderr, code := execute(t, "routes", "--config", filepath.Join(t.TempDir(), "nope.json"))
	if code == 0 || !strings.Contains(stderr, "E100") {
		t.Errorf("code = %d, stderr = %q", code, stderr)
	}
}

func TestInvalidConfigValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evalboard.json")
	if err := os.WriteFile(path, []byte(`{"routes": [{"path": "/x", "view": "Nope"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, code := execute(t, "routes", "--config", path)
	if code == 0 || !strings.Contains(stderr, "E103") {
		t.Errorf("code = %d, stderr = %q", code, stderr)
	}
}
