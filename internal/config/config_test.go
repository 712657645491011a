package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "name: demo\n")

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Name != "demo" {
		t.Errorf("expected name demo, got %q", c.Name)
	}
	if c.Log.Level != DefaultLogLevel {
		t.Errorf("expected default log level, got %q", c.Log.Level)
	}
	if c.Inspector.Port != DefaultInspectorPort {
		t.Errorf("expected default inspector port, got %d", c.Inspector.Port)
	}
	if c.Path() != path {
		t.Errorf("expected path %s, got %s", path, c.Path())
	}
}

func TestLoadFileFull(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
name: demo
log:
  level: debug
  format: json
inspector:
  enabled: true
  host: 0.0.0.0
  port: 9000
engine:
  tickInterval: 5ms
  metrics: true
`)

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Errorf("log config lost: %+v", c.Log)
	}
	if !c.Inspector.Enabled || c.InspectorAddress() != "0.0.0.0:9000" {
		t.Errorf("inspector config lost: %+v", c.Inspector)
	}
	if c.Engine.TickInterval != 5*time.Millisecond {
		t.Errorf("expected 5ms tick, got %v", c.Engine.TickInterval)
	}
	if !c.Engine.Metrics {
		t.Errorf("metrics flag lost")
	}
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "name: above\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	c, err := Load(nested)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Name != "above" {
		t.Errorf("expected config from ancestor dir, got %q", c.Name)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Path() != "" {
		t.Errorf("defaults should have no path, got %s", c.Path())
	}
	if c.Log.Level != DefaultLogLevel {
		t.Errorf("defaults not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad port", "inspector:\n  port: 70000\n"},
		{"negative tick", "engine:\n  tickInterval: -1s\n"},
		{"not yaml", "{{{\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tc.content)
			if _, err := LoadFile(path); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}
