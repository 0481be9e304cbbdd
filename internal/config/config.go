package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// MinWindowCloseDelay guards against a close delay written in seconds
	// ("3") being read as milliseconds.
	MinWindowCloseDelay = 100 * time.Millisecond

	MinSampleInterval = 10 * time.Millisecond
	MaxSampleInterval = time.Second

	MaxRequiredShakes = 50
)

// Config holds all application configuration
type Config struct {
	// Shake detection and hide timing
	Monitor MonitorConfig `toml:"monitor"`

	// Window executor configuration
	Window WindowConfig `toml:"window"`

	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// Daemon configuration
	Daemon DaemonConfig `toml:"daemon"`

	// Report configuration
	Report ReportConfig `toml:"report"`

	// Web server configuration
	Web WebConfig `toml:"web"`

	// Logging configuration
	Log LogConfig `toml:"log"`
}

// MonitorConfig holds the gesture and visibility parameters
type MonitorConfig struct {
	RequiredShakes          uint     `toml:"required_shakes"`           // Reversals needed to trigger
	ShakeTimeLimit          Duration `toml:"shake_time_limit"`          // Max gap between reversals
	ShakeThreshold          int      `toml:"shake_threshold"`           // Min horizontal pixels per tick
	WindowCloseDelay        Duration `toml:"window_close_delay"`        // Idle time before hiding
	SampleInterval          Duration `toml:"-"`                         // Pointer poll period
	ForegroundCheckInterval Duration `toml:"foreground_check_interval"` // Foreground gate re-check period
	ProcessAllowlist        []string `toml:"process_allowlist"`         // Empty means any foreground process
	SuppressWhenMaximized   bool     `toml:"suppress_when_maximized"`
	ActivityGrace           Duration `toml:"activity_grace"` // Quiet period after a drop before the hide countdown resumes
	EdgeMargin              int      `toml:"edge_margin"`    // 0 means ShakeThreshold
	HotkeyMargin            int      `toml:"hotkey_margin"`  // Margin for externally requested shows
}

// WindowConfig describes how intents reach the auxiliary window
type WindowConfig struct {
	Title    string `toml:"title"`    // Window title used to locate the window
	Executor string `toml:"executor"` // "auto", "xdotool" or "log"
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path"` // Path to SQLite database file
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `toml:"pid_file"` // Path to PID file for daemon management
	LogFile string `toml:"log_file"`
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	TimeZone string `toml:"time_zone"`
}

// WebConfig holds web server configuration
type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"` // Host to bind web server to
	Port    int    `toml:"port"` // Port for web server
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			RequiredShakes:          5,
			ShakeTimeLimit:          Duration{1500 * time.Millisecond},
			ShakeThreshold:          100,
			WindowCloseDelay:        Duration{3000 * time.Millisecond},
			SampleInterval:          Duration{50 * time.Millisecond},
			ForegroundCheckInterval: Duration{500 * time.Millisecond},
			SuppressWhenMaximized:   true,
			ActivityGrace:           Duration{250 * time.Millisecond},
			HotkeyMargin:            200,
		},
		Window: WindowConfig{
			Title:    "shakewatch",
			Executor: "auto",
		},
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/shakewatch/shakewatch.db
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/shakewatch-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/shakewatch-%d.log", os.Getuid()),
		},
		Report: ReportConfig{
			TimeZone: "Local",
		},
		Web: WebConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    20000 + os.Getuid()%10000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	m := c.Monitor

	if m.RequiredShakes < 1 || m.RequiredShakes > MaxRequiredShakes {
		return fmt.Errorf("required shakes must be between 1 and %d, got %d", MaxRequiredShakes, m.RequiredShakes)
	}

	if m.ShakeTimeLimit.Duration <= 0 {
		return fmt.Errorf("shake time limit must be positive, got %v", m.ShakeTimeLimit)
	}

	if m.ShakeThreshold < 0 {
		return fmt.Errorf("shake threshold cannot be negative")
	}

	if m.WindowCloseDelay.Duration < MinWindowCloseDelay {
		return fmt.Errorf("window close delay (%v) cannot be less than %v; integer values are milliseconds",
			m.WindowCloseDelay, MinWindowCloseDelay)
	}

	if m.SampleInterval.Duration < MinSampleInterval || m.SampleInterval.Duration > MaxSampleInterval {
		return fmt.Errorf("sample interval (%v) must be between %v and %v",
			m.SampleInterval, MinSampleInterval, MaxSampleInterval)
	}

	if m.ForegroundCheckInterval.Duration < m.SampleInterval.Duration {
		return fmt.Errorf("foreground check interval (%v) cannot be less than sample interval (%v)",
			m.ForegroundCheckInterval, m.SampleInterval)
	}

	if m.ActivityGrace.Duration < 0 {
		return fmt.Errorf("activity grace cannot be negative")
	}

	if m.EdgeMargin < 0 || m.HotkeyMargin < 0 {
		return fmt.Errorf("margins cannot be negative")
	}

	switch c.Window.Executor {
	case "auto", "xdotool", "log":
	default:
		return fmt.Errorf("window executor must be auto, xdotool or log, got %q", c.Window.Executor)
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// SetRequiredShakes sets the reversal count with validation
func (c *Config) SetRequiredShakes(n uint) error {
	if n < 1 || n > MaxRequiredShakes {
		return fmt.Errorf("required shakes must be between 1 and %d, got %d", MaxRequiredShakes, n)
	}
	c.Monitor.RequiredShakes = n
	return nil
}

// SetWindowCloseDelay sets the hide delay with validation
func (c *Config) SetWindowCloseDelay(delay time.Duration) error {
	if delay < MinWindowCloseDelay {
		return fmt.Errorf("window close delay cannot be less than %v", MinWindowCloseDelay)
	}
	c.Monitor.WindowCloseDelay = Duration{delay}
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// ShakeMargin returns the edge margin applied to shake-triggered shows
func (c *Config) ShakeMargin() int {
	if c.Monitor.EdgeMargin > 0 {
		return c.Monitor.EdgeMargin
	}
	return c.Monitor.ShakeThreshold
}

// String returns a string representation of the config
func (c *Config) String() string {
	allowlist := "(any)"
	if len(c.Monitor.ProcessAllowlist) > 0 {
		allowlist = strings.Join(c.Monitor.ProcessAllowlist, ", ")
	}

	return fmt.Sprintf(`Configuration:
  Monitor:
    Required Shakes: %d
    Shake Time Limit: %v
    Shake Threshold: %dpx
    Window Close Delay: %v
    Sample Interval: %v
    Foreground Check: %v
    Process Allowlist: %s
    Suppress Maximized: %v
    Activity Grace: %v
    Edge Margin: %dpx
    Hotkey Margin: %dpx
  Window:
    Title: %s
    Executor: %s
  Database:
    Path: %s
  Daemon:
    PID File: %s
    Log File: %s
  Report:
    Time Zone: %s
  Web:
    Enabled: %v
    Host: %s
    Port: %d
  Log:
    Level: %s
    Format: %s`,
		c.Monitor.RequiredShakes,
		c.Monitor.ShakeTimeLimit,
		c.Monitor.ShakeThreshold,
		c.Monitor.WindowCloseDelay,
		c.Monitor.SampleInterval,
		c.Monitor.ForegroundCheckInterval,
		allowlist,
		c.Monitor.SuppressWhenMaximized,
		c.Monitor.ActivityGrace,
		c.ShakeMargin(),
		c.Monitor.HotkeyMargin,
		c.Window.Title,
		c.Window.Executor,
		c.Database.Path,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Report.TimeZone,
		c.Web.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Log.Level,
		c.Log.Format,
	)
}
