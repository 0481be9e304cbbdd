package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default and file values
func LoadFromEnv(cfg *Config) {
	// Monitor configuration
	if v := os.Getenv("SHAKEWATCH_REQUIRED_SHAKES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil && n > 0 && n <= MaxRequiredShakes {
			cfg.Monitor.RequiredShakes = uint(n)
		}
	}

	if v := os.Getenv("SHAKEWATCH_SHAKE_TIME_LIMIT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Monitor.ShakeTimeLimit = Duration{time.Duration(ms) * time.Millisecond}
		}
	}

	if v := os.Getenv("SHAKEWATCH_SHAKE_THRESHOLD"); v != "" {
		if px, err := strconv.Atoi(v); err == nil && px >= 0 {
			cfg.Monitor.ShakeThreshold = px
		}
	}

	// Milliseconds, the unit the default of 3000 was written in
	if v := os.Getenv("SHAKEWATCH_WINDOW_CLOSE_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Monitor.WindowCloseDelay = Duration{time.Duration(ms) * time.Millisecond}
		}
	}

	if v, ok := os.LookupEnv("SHAKEWATCH_PROCESS_ALLOWLIST"); ok {
		cfg.Monitor.ProcessAllowlist = splitList(v)
	}

	if v := os.Getenv("SHAKEWATCH_SUPPRESS_MAXIMIZED"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Monitor.SuppressWhenMaximized = val
		}
	}

	// Window configuration
	if v := os.Getenv("SHAKEWATCH_WINDOW_TITLE"); v != "" {
		cfg.Window.Title = v
	}

	if v := os.Getenv("SHAKEWATCH_EXECUTOR"); v != "" {
		cfg.Window.Executor = strings.ToLower(v)
	}

	// Database configuration
	if dbPath := os.Getenv("SHAKEWATCH_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Daemon configuration
	if pidFile := os.Getenv("SHAKEWATCH_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("SHAKEWATCH_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if timeZone := os.Getenv("SHAKEWATCH_TIMEZONE"); timeZone != "" {
		cfg.Report.TimeZone = timeZone
	}

	// Web configuration
	if webHost := os.Getenv("SHAKEWATCH_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("SHAKEWATCH_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	// Logging configuration
	if level := os.Getenv("SHAKEWATCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}

	if format := os.Getenv("SHAKEWATCH_LOG_FORMAT"); format != "" {
		cfg.Log.Format = strings.ToLower(format)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
