package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes an executable shell script and returns a Plugin for it.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
		},
		Path:       dir,
		Executable: scriptPath,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "hello", `#!/bin/sh
cat >/dev/null
echo '{"success":true,"data":{"message":"hello world"}}'
`)

	executor := NewExecutor(5000)
	response, err := executor.Execute(plugin, &Request{Event: EventArrival, Name: "alice", Known: true})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)
	plugin.Manifest.Config = json.RawMessage(`{"greeting":"welcome"}`)

	ts := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	request := &Request{
		Event:     EventArrival,
		Name:      "alice",
		Known:     true,
		Distance:  0.25,
		Person:    &Person{College: "Engineering"},
		Timestamp: ts,
	}

	executor := NewExecutor(5000)
	response, err := executor.Execute(plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Event != EventArrival || got.Name != "alice" || !got.Known {
		t.Errorf("received request = %+v", got)
	}
	if got.Person == nil || got.Person.College != "Engineering" {
		t.Errorf("person not forwarded: %+v", got.Person)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
	if string(got.Config) != `{"greeting":"welcome"}` {
		t.Errorf("manifest config not attached, got %s", got.Config)
	}
	if request.Config != nil {
		t.Error("caller's request should not be modified")
	}
}

func TestExecutor_Execute_PluginFailure(t *testing.T) {
	plugin := scriptPlugin(t, "fail", `#!/bin/sh
echo '{"success":false,"error":"door locked"}'
`)

	response, err := NewExecutor(5000).Execute(plugin, &Request{Event: EventArrival})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error != "door locked" {
		t.Errorf("expected error 'door locked', got %q", response.Error)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, "crash", `#!/bin/sh
echo "boom" >&2
exit 3
`)

	_, err := NewExecutor(5000).Execute(plugin, &Request{Event: EventArrival})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should include stderr, got %v", err)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, "garbage", `#!/bin/sh
echo "not json"
`)

	_, err := NewExecutor(5000).Execute(plugin, &Request{Event: EventArrival})
	if err == nil {
		t.Fatal("expected error for invalid JSON output")
	}
	if !strings.Contains(err.Error(), "failed to parse plugin response") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `#!/bin/sh
sleep 5
echo '{"success":true}'
`)

	start := time.Now()
	_, err := NewExecutor(100).Execute(plugin, &Request{Event: EventArrival})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("timeout took too long")
	}
}

func TestExecutor_ExecuteContext_Cancelled(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `#!/bin/sh
sleep 5
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(5000).ExecuteContext(ctx, plugin, &Request{Event: EventArrival})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExecutor_Execute_MissingExecutable(t *testing.T) {
	plugin := &Plugin{
		Manifest:   Manifest{Name: "ghost", Executable: "ghost"},
		Path:       t.TempDir(),
		Executable: "/nonexistent/ghost",
	}

	if _, err := NewExecutor(1000).Execute(plugin, &Request{Event: EventArrival}); err == nil {
		t.Error("expected error for missing executable")
	}
}
