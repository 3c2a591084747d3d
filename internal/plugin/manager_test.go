package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writePlugin creates <dir>/<name>/plugin.json from manifest.
func writePlugin(t *testing.T, dir string, manifest Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, manifest.Name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifestBytes, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	pluginDir := writePlugin(t, tmpDir, Manifest{
		Name:        "announce",
		Version:     "1.0.0",
		Description: "Logs arrivals",
		Executable:  "announce",
		Events:      []string{EventArrival, EventUnknown},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "announce" {
		t.Errorf("expected plugin name 'announce', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", plugin.Manifest.Version)
	}
	if len(plugin.Manifest.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(plugin.Manifest.Events))
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(pluginDir, "announce") {
		t.Errorf("unexpected executable path %q", plugin.Executable)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	writePlugin(t, tmpDir, Manifest{Name: "good", Executable: "good"})
	writePlugin(t, tmpDir, Manifest{Name: "no-exec"})

	badDir := filepath.Join(tmpDir, "bad-json")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "plugin.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "stray-file"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Errorf("expected only 'good', got %d plugins", len(plugins))
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "nope"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("missing directory should not fail: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writePlugin(t, tmpDir, Manifest{Name: "temp", Executable: "temp"})

	manager := NewManager(tmpDir)
	manager.Discover()

	if err := os.RemoveAll(pluginDir); err != nil {
		t.Fatal(err)
	}
	manager.Discover()

	if _, err := manager.Get("temp"); err != ErrPluginNotFound {
		t.Errorf("removed plugin should be gone, got %v", err)
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, Manifest{Name: "announce", Executable: "announce"})

	manager := NewManager(tmpDir)
	manager.Discover()

	if _, err := manager.Get("announce"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
	if _, err := manager.Get("missing"); err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_ForEvent(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, Manifest{Name: "zeta", Executable: "z"})
	writePlugin(t, tmpDir, Manifest{Name: "alpha", Executable: "a", Events: []string{EventArrival}})
	writePlugin(t, tmpDir, Manifest{Name: "guard", Executable: "g", Events: []string{EventUnknown}})

	manager := NewManager(tmpDir)
	manager.Discover()

	tests := []struct {
		event string
		want  []string
	}{
		{event: EventArrival, want: []string{"alpha", "zeta"}},
		{event: EventUnknown, want: []string{"guard"}},
		{event: "other", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			got := manager.ForEvent(tt.event)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d plugins, got %d", len(tt.want), len(got))
			}
			for i, p := range got {
				if p.Manifest.Name != tt.want[i] {
					t.Errorf("plugin %d = %s, want %s", i, p.Manifest.Name, tt.want[i])
				}
			}
		})
	}
}

func TestPlugin_Handles(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		event  string
		want   bool
	}{
		{name: "default arrival", events: nil, event: EventArrival, want: true},
		{name: "default not unknown", events: nil, event: EventUnknown, want: false},
		{name: "listed", events: []string{EventUnknown}, event: EventUnknown, want: true},
		{name: "not listed", events: []string{EventUnknown}, event: EventArrival, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plugin{Manifest: Manifest{Events: tt.events}}
			if got := p.Handles(tt.event); got != tt.want {
				t.Errorf("Handles(%s) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
