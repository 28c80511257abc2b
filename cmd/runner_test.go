package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/desertthunder/strum/internal/shared"
)

func TestNewRunner(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})
		if r.config == nil {
			t.Error("expected default config")
		}
		if r.logger == nil {
			t.Error("expected default logger")
		}
		if r.output == nil {
			t.Error("expected default output")
		}
	})

	t.Run("keeps provided config", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.UI.PageSize = 7
		r := NewRunner(RunnerOpts{Config: config})
		if r.config.UI.PageSize != 7 {
			t.Errorf("expected provided config retained, got %d", r.config.UI.PageSize)
		}
	})
}

func TestRegister(t *testing.T) {
	r := NewRunner(RunnerOpts{})
	commands := r.register()

	names := make(map[string]bool)
	for _, cmd := range commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"setup", "auth", "playback", "playlist", "tui"} {
		if !names[want] {
			t.Errorf("expected %s command registered", want)
		}
	}
}

func TestWriters(t *testing.T) {
	t.Run("writeJSON", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})
		if err := r.writeJSON(map[string]int{"tracks": 3}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != `{"tracks":3}` {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("writePlainln appends newline", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})
		r.writePlainln("hello %s", "there")
		if buf.String() != "hello there\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("default path falls back to startup config", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})
		config, err := r.loadConfig(defaultConfigPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config != r.config {
			t.Error("expected startup config for the default path")
		}
	})

	t.Run("missing explicit path errors", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})
		if _, err := r.loadConfig("does-not-exist.toml"); err == nil {
			t.Error("expected error for a missing explicit config")
		}
	})
}
