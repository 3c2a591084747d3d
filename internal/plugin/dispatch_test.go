package plugin

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func installScript(t *testing.T, dir string, manifest Manifest, script string) {
	t.Helper()
	pluginDir := writePlugin(t, dir, manifest)
	if err := os.WriteFile(filepath.Join(pluginDir, manifest.Executable), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	installScript(t, dir, Manifest{Name: "ok", Executable: "run.sh"}, `#!/bin/sh
cat >/dev/null
echo '{"success":true}'
`)
	installScript(t, dir, Manifest{Name: "refuse", Executable: "run.sh"}, `#!/bin/sh
cat >/dev/null
echo '{"success":false,"error":"nope"}'
`)
	installScript(t, dir, Manifest{Name: "crash", Executable: "run.sh"}, `#!/bin/sh
exit 1
`)
	installScript(t, dir, Manifest{Name: "strangers", Executable: "run.sh", Events: []string{EventUnknown}}, `#!/bin/sh
echo '{"success":true}'
`)

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(manager, NewExecutor(5000))

	results := d.Dispatch(context.Background(), &Request{Event: EventArrival, Name: "alice", Known: true})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := []struct {
		plugin string
		ok     bool
		errMsg string
	}{
		{"crash", false, ""},
		{"ok", true, ""},
		{"refuse", false, "nope"},
	}
	for i, w := range want {
		r := results[i]
		if r.Plugin != w.plugin {
			t.Errorf("result %d plugin = %s, want %s", i, r.Plugin, w.plugin)
		}
		if r.OK() != w.ok {
			t.Errorf("%s OK() = %v, want %v", r.Plugin, r.OK(), w.ok)
		}
		if w.errMsg != "" && r.ErrorText() != w.errMsg {
			t.Errorf("%s ErrorText() = %q, want %q", r.Plugin, r.ErrorText(), w.errMsg)
		}
	}
	if results[0].ErrorText() == "" {
		t.Error("crashed plugin should have an error text")
	}
}

func TestDispatcher_NoPlugins(t *testing.T) {
	d := NewDispatcher(NewManager(t.TempDir()), NewExecutor(1000))

	if results := d.Dispatch(context.Background(), &Request{Event: EventArrival}); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestResult_ErrorText(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{name: "success", result: Result{Response: &Response{Success: true}}, want: ""},
		{name: "no response", result: Result{}, want: "no response"},
		{name: "silent failure", result: Result{Response: &Response{}}, want: "plugin reported failure"},
		{name: "reported failure", result: Result{Response: &Response{Error: "jammed"}}, want: "jammed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.ErrorText(); got != tt.want {
				t.Errorf("ErrorText() = %q, want %q", got, tt.want)
			}
		})
	}
}
