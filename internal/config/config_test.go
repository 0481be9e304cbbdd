package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHAKEWATCH_REQUIRED_SHAKES", "4")
	t.Setenv("SHAKEWATCH_SHAKE_TIME_LIMIT_MS", "900")
	t.Setenv("SHAKEWATCH_SHAKE_THRESHOLD", "60")
	t.Setenv("SHAKEWATCH_WINDOW_CLOSE_DELAY_MS", "4500")
	t.Setenv("SHAKEWATCH_PROCESS_ALLOWLIST", "nautilus, thunar ,,")
	t.Setenv("SHAKEWATCH_SUPPRESS_MAXIMIZED", "false")
	t.Setenv("SHAKEWATCH_WINDOW_TITLE", "Drop Shelf")
	t.Setenv("SHAKEWATCH_EXECUTOR", "LOG")
	t.Setenv("SHAKEWATCH_WEB_PORT", "18080")
	t.Setenv("SHAKEWATCH_LOG_LEVEL", "DEBUG")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Monitor.RequiredShakes != 4 {
		t.Errorf("RequiredShakes = %d, want 4", cfg.Monitor.RequiredShakes)
	}
	if cfg.Monitor.ShakeTimeLimit.Duration != 900*time.Millisecond {
		t.Errorf("ShakeTimeLimit = %v, want 900ms", cfg.Monitor.ShakeTimeLimit)
	}
	if cfg.Monitor.ShakeThreshold != 60 {
		t.Errorf("ShakeThreshold = %d, want 60", cfg.Monitor.ShakeThreshold)
	}
	if cfg.Monitor.WindowCloseDelay.Duration != 4500*time.Millisecond {
		t.Errorf("WindowCloseDelay = %v, want 4.5s", cfg.Monitor.WindowCloseDelay)
	}
	if want := []string{"nautilus", "thunar"}; !reflect.DeepEqual(cfg.Monitor.ProcessAllowlist, want) {
		t.Errorf("ProcessAllowlist = %v, want %v", cfg.Monitor.ProcessAllowlist, want)
	}
	if cfg.Monitor.SuppressWhenMaximized {
		t.Error("SuppressWhenMaximized = true, want false")
	}
	if cfg.Window.Title != "Drop Shelf" {
		t.Errorf("Window.Title = %q, want Drop Shelf", cfg.Window.Title)
	}
	if cfg.Window.Executor != "log" {
		t.Errorf("Window.Executor = %q, want log", cfg.Window.Executor)
	}
	if cfg.Web.Port != 18080 {
		t.Errorf("Web.Port = %d, want 18080", cfg.Web.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("SHAKEWATCH_REQUIRED_SHAKES", "0")
	t.Setenv("SHAKEWATCH_SHAKE_TIME_LIMIT_MS", "soon")
	t.Setenv("SHAKEWATCH_WEB_PORT", "70000")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Monitor.RequiredShakes != 5 {
		t.Errorf("RequiredShakes = %d, want default 5", cfg.Monitor.RequiredShakes)
	}
	if cfg.Monitor.ShakeTimeLimit.Duration != 1500*time.Millisecond {
		t.Errorf("ShakeTimeLimit = %v, want default 1.5s", cfg.Monitor.ShakeTimeLimit)
	}
	if cfg.Web.Port != Default().Web.Port {
		t.Errorf("Web.Port = %d, want default", cfg.Web.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Defaults", func(c *Config) {}, ""},
		{"Zero shakes", func(c *Config) { c.Monitor.RequiredShakes = 0 }, "required shakes"},
		{"Too many shakes", func(c *Config) { c.Monitor.RequiredShakes = 51 }, "required shakes"},
		{"Zero time limit", func(c *Config) { c.Monitor.ShakeTimeLimit = Duration{} }, "shake time limit"},
		{"Negative threshold", func(c *Config) { c.Monitor.ShakeThreshold = -1 }, "shake threshold"},
		{"Close delay in seconds", func(c *Config) { c.Monitor.WindowCloseDelay = Duration{3 * time.Millisecond} }, "window close delay"},
		{"Sample interval too fast", func(c *Config) { c.Monitor.SampleInterval = Duration{time.Millisecond} }, "sample interval"},
		{"Foreground check faster than sampling", func(c *Config) {
			c.Monitor.ForegroundCheckInterval = Duration{10 * time.Millisecond}
		}, "foreground check interval"},
		{"Negative grace", func(c *Config) { c.Monitor.ActivityGrace = Duration{-time.Second} }, "activity grace"},
		{"Negative margin", func(c *Config) { c.Monitor.HotkeyMargin = -5 }, "margins"},
		{"Unknown executor", func(c *Config) { c.Window.Executor = "wmctrl" }, "window executor"},
		{"Bad port", func(c *Config) { c.Web.Port = 0 }, "web port"},
		{"Empty host", func(c *Config) { c.Web.Host = "" }, "web host"},
		{"Empty PID file", func(c *Config) { c.Daemon.PIDFile = "" }, "PID file"},
		{"Bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"1500", 1500 * time.Millisecond, false},
		{"1.5s", 1500 * time.Millisecond, false},
		{"250ms", 250 * time.Millisecond, false},
		{" 3s ", 3 * time.Second, false},
		{"", 0, false},
		{"three", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, d.Duration, tt.expected)
			}
		})
	}
}

func TestDurationUnmarshalTOML(t *testing.T) {
	var d Duration
	if err := d.UnmarshalTOML(int64(3000)); err != nil || d.Duration != 3*time.Second {
		t.Errorf("UnmarshalTOML(3000) = %v, %v; want 3s", d.Duration, err)
	}
	if err := d.UnmarshalTOML(float64(2.5)); err != nil || d.Duration != 2500*time.Microsecond {
		t.Errorf("UnmarshalTOML(2.5) = %v, %v; want 2.5ms", d.Duration, err)
	}
	if err := d.UnmarshalTOML(true); err == nil {
		t.Error("UnmarshalTOML(true) = nil error, want error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[monitor]
required_shakes = 4
shake_threshold = 80
suppress_when_maximized = false

[window]
title = "Shelf"

[web]
enabled = false
port = 19000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Monitor.RequiredShakes != 4 || cfg.Monitor.ShakeThreshold != 80 {
		t.Errorf("monitor = %+v, want 4 shakes / 80px", cfg.Monitor)
	}
	if cfg.Monitor.SuppressWhenMaximized {
		t.Error("SuppressWhenMaximized = true, want false")
	}
	// Keys absent from the file keep their defaults.
	if cfg.Monitor.ShakeTimeLimit.Duration != 1500*time.Millisecond {
		t.Errorf("ShakeTimeLimit = %v, want default", cfg.Monitor.ShakeTimeLimit)
	}
	if cfg.Window.Title != "Shelf" {
		t.Errorf("Window.Title = %q, want Shelf", cfg.Window.Title)
	}
	if cfg.Web.Enabled || cfg.Web.Port != 19000 {
		t.Errorf("Web = %+v, want disabled on 19000", cfg.Web)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Monitor.RequiredShakes != 5 {
		t.Errorf("RequiredShakes = %d, want default", cfg.Monitor.RequiredShakes)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[monitor\nrequired_shakes = "), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() = nil error for malformed TOML")
	}
}

func TestNewUsesConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[monitor]\nrequired_shakes = 7\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	t.Setenv("SHAKEWATCH_CONFIG", path)
	t.Setenv("SHAKEWATCH_SHAKE_THRESHOLD", "42")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if cfg.Monitor.RequiredShakes != 7 {
		t.Errorf("RequiredShakes = %d, want 7 from file", cfg.Monitor.RequiredShakes)
	}
	if cfg.Monitor.ShakeThreshold != 42 {
		t.Errorf("ShakeThreshold = %d, want 42 from env", cfg.Monitor.ShakeThreshold)
	}
}

func TestShakeMargin(t *testing.T) {
	cfg := Default()
	if cfg.ShakeMargin() != cfg.Monitor.ShakeThreshold {
		t.Errorf("ShakeMargin() = %d, want threshold %d", cfg.ShakeMargin(), cfg.Monitor.ShakeThreshold)
	}
	cfg.Monitor.EdgeMargin = 240
	if cfg.ShakeMargin() != 240 {
		t.Errorf("ShakeMargin() = %d, want 240", cfg.ShakeMargin())
	}
}

func TestString(t *testing.T) {
	cfg := Default()
	cfg.Monitor.ProcessAllowlist = []string{"nautilus"}
	s := cfg.String()
	for _, want := range []string{"Required Shakes: 5", "Window Close Delay: 3s", "Process Allowlist: nautilus"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q", want)
		}
	}
}
