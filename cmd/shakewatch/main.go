package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/internal/config"
	"github.com/shakewatch/shakewatch/internal/daemon"
	"github.com/shakewatch/shakewatch/internal/database"
	"github.com/shakewatch/shakewatch/internal/dispatch"
	"github.com/shakewatch/shakewatch/internal/logging"
	"github.com/shakewatch/shakewatch/internal/monitor"
	"github.com/shakewatch/shakewatch/internal/reporter"
	"github.com/shakewatch/shakewatch/internal/sampler"
	"github.com/shakewatch/shakewatch/internal/web"
	"github.com/shakewatch/shakewatch/pkg/detector"
	"github.com/shakewatch/shakewatch/pkg/intent"
	"github.com/shakewatch/shakewatch/pkg/integrations/xdotool"
	"github.com/shakewatch/shakewatch/pkg/pointer"
	"github.com/shakewatch/shakewatch/pkg/utils"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const (
	intentQueueSize = 16
	stopTimeout     = 5 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startDaemon(false)
	case "serve":
		startDaemon(true)
	case "run":
		runForeground()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "show":
		requestShow()
	case "activity":
		notifyActivity()
	case "probe":
		probe()
	case "report":
		generateReport()
	case "clear":
		clearDatabase()
	case "config":
		cfg := loadConfig()
		fmt.Println(cfg.String())
	case "version":
		fmt.Printf("shakewatch version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`shakewatch - Shake the pointer to summon a window

Usage:
  shakewatch <command> [options]

Commands:
  start              Start the monitor daemon
  serve              Start the monitor daemon with the web API forced on
  run                Run the monitor in the foreground
  stop               Stop the daemon
  status             Show daemon status, pointer and foreground window
  show [x y]         Ask the daemon to show the window (hotkey), at the pointer by default
  activity           Tell the daemon a drop is in progress over the window
  probe [seconds]    Print pointer and foreground readings (default 10s)
  report [period]    Trigger report (period: day, week, month) [--json]
  clear              Clear all recorded triggers and errors
  config             Print the effective configuration
  version            Show version information
  help               Show this help message

Examples:
  shakewatch start
  shakewatch status
  shakewatch show
  shakewatch report week --json
  shakewatch stop

Environment Variables:
  SHAKEWATCH_CONFIG                 Config file path (TOML)
  SHAKEWATCH_REQUIRED_SHAKES        Reversals needed to trigger
  SHAKEWATCH_SHAKE_TIME_LIMIT_MS    Max gap between reversals
  SHAKEWATCH_SHAKE_THRESHOLD        Min horizontal pixels per sample
  SHAKEWATCH_WINDOW_CLOSE_DELAY_MS  Idle time before hiding
  SHAKEWATCH_PROCESS_ALLOWLIST      Comma separated foreground processes
  SHAKEWATCH_EXECUTOR               auto, xdotool or log
  SHAKEWATCH_DB_PATH                Database file path
  SHAKEWATCH_PID_FILE               PID file path
  SHAKEWATCH_LOG_LEVEL              debug, info, warn, error

Version: %s
`, version)
}

func loadConfig() *config.Config {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatalf("Invalid log configuration: %v", err)
	}
	return cfg
}

func startDaemon(withWeb bool) {
	cfg := loadConfig()
	if withWeb {
		cfg.Web.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if !daemon.IsChild() {
		pid, err := daemon.Spawn(os.Args[1:], cfg.Daemon.LogFile)
		if err != nil {
			log.Fatalf("Failed to start daemon: %v", err)
		}
		fmt.Printf("Daemon started successfully (PID: %d)\n", pid)
		if cfg.Web.Enabled {
			fmt.Printf("Web API available at: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
		}
		fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
		return
	}

	if err := dm.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	if err := runMonitor(cfg); err != nil {
		log.Errorf("Daemon error: %v", err)
		return
	}
	log.Println("Daemon stopped successfully")
}

func runForeground() {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := runMonitor(cfg); err != nil {
		log.Fatalf("Monitor error: %v", err)
	}
}

// runMonitor wires the pipeline and blocks until SIGINT or SIGTERM.
func runMonitor(cfg *config.Config) error {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	repo := database.NewRepository(db)

	backend, err := detector.New()
	if err != nil {
		return errors.Wrap(err, "failed to initialize pointer backend")
	}
	defer backend.Close()
	log.Printf("Pointer backend initialized: %s", backend.DisplayServer())

	smp := sampler.New(backend, backend, sampler.Config{
		CheckInterval:         cfg.Monitor.ForegroundCheckInterval.Duration,
		Allowlist:             cfg.Monitor.ProcessAllowlist,
		SuppressWhenMaximized: cfg.Monitor.SuppressWhenMaximized,
	})

	queue := intent.NewQueue(intentQueueSize)
	dispatcher := dispatch.New(queue.C(), newExecutor(cfg), repo)

	svc := monitor.NewService(cfg, monitor.Deps{
		Sampler:       smp,
		Screen:        backend,
		Sink:          queue,
		Recorder:      repo,
		DisplayServer: backend.DisplayServer(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		if err := dispatcher.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Dispatcher error: %v", err)
		}
	}()

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(cfg, repo, svc, 0)
		go func() {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server error: %v", err)
			}
		}()
		log.Printf("Web API available at: http://%s", webServer.GetAddress())
	}

	monErr := make(chan error, 1)
	go func() {
		monErr <- svc.Start(ctx)
	}()

	log.Println("Starting shakewatch monitor...")
	log.Printf("Configuration:\n%s", cfg.String())

	var runErr error
	select {
	case <-sigChan:
		log.Println("Received shutdown signal")
	case err := <-monErr:
		if err != nil && err != context.Canceled {
			runErr = err
		}
	}

	svc.Stop()
	cancel()

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}

	<-dispatchDone
	executed, failed := dispatcher.Counts()
	log.WithFields(log.Fields{"executed": executed, "failed": failed}).Info("Intents dispatched")

	return runErr
}

func newExecutor(cfg *config.Config) intent.Executor {
	switch cfg.Window.Executor {
	case "xdotool":
		return xdotool.NewExecutor(cfg.Window.Title)
	case "log":
		return intent.LogExecutor{}
	}

	if xdotool.Available() {
		log.Printf("Using xdotool for window %q", cfg.Window.Title)
		return xdotool.NewExecutor(cfg.Window.Title)
	}
	log.Warn("xdotool not found, window intents are only logged")
	return intent.LogExecutor{}
}

func stopDaemon() {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(stopTimeout); err != nil {
		log.Fatalf("Failed to stop daemon: %v", err)
	}

	fmt.Println("Daemon stopped successfully")
}

func showStatus() {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Sample Interval: %s\n", utils.FormatMillis(cfg.Monitor.SampleInterval.Duration))
		fmt.Printf("Shake: %d reversals within %s\n", cfg.Monitor.RequiredShakes, utils.FormatMillis(cfg.Monitor.ShakeTimeLimit.Duration))
		fmt.Printf("Close Delay: %s\n", utils.FormatMillis(cfg.Monitor.WindowCloseDelay.Duration))
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		if cfg.Web.Enabled {
			printMonitorStatus(cfg)
		}
	}

	backend, err := detector.New()
	if err != nil {
		fmt.Printf("\nCould not query pointer: %v\n", err)
		return
	}
	defer backend.Close()

	if st, err := backend.QueryPointer(); err == nil {
		fmt.Printf("\nPointer: (%d, %d) pressed=%v\n", st.Position.X, st.Position.Y, st.ButtonDown)
	}
	if size, err := backend.ScreenSize(); err == nil {
		fmt.Printf("Screen: %dx%d\n", size.Width, size.Height)
	}

	info, err := backend.ForegroundWindow()
	if err == nil && info != nil {
		smp := sampler.New(backend, nil, sampler.Config{
			Allowlist:             cfg.Monitor.ProcessAllowlist,
			SuppressWhenMaximized: cfg.Monitor.SuppressWhenMaximized,
		})
		fmt.Printf("\nForeground Window:\n")
		fmt.Printf("  App: %s\n", info.AppName)
		fmt.Printf("  Process: %s\n", info.ProcessName)
		fmt.Printf("  Title: %s\n", info.WindowTitle)
		fmt.Printf("  Display: %s\n", info.DisplayServer)
		fmt.Printf("  Shake detection: %v\n", smp.Allows(info))
	}
}

func printMonitorStatus(cfg *config.Config) {
	var payload struct {
		Monitor *monitor.Status `json:"monitor"`
	}
	if err := apiCall(cfg, http.MethodGet, "/api/status", nil, &payload); err != nil || payload.Monitor == nil {
		return
	}
	st := payload.Monitor
	fmt.Printf("Window Shown: %v\n", st.Shown)
	fmt.Printf("Detection Active: %v\n", st.Active)
	fmt.Printf("Triggers: %d\n", st.Triggers)
	if !st.LastTrigger.IsZero() {
		fmt.Printf("Last Trigger: %s ago\n", utils.FormatAge(time.Since(st.LastTrigger)))
	}
}

func requestShow() {
	cfg := loadConfig()

	body := map[string]interface{}{
		"source":  string(intent.SourceHotkey),
		"correct": true,
	}

	if len(os.Args) >= 4 {
		x, errX := strconv.Atoi(os.Args[2])
		y, errY := strconv.Atoi(os.Args[3])
		if errX != nil || errY != nil {
			log.Fatalf("Invalid position %q %q", os.Args[2], os.Args[3])
		}
		body["x"], body["y"] = x, y
	} else {
		p, err := currentPointer()
		if err != nil {
			log.Fatalf("Failed to read pointer: %v", err)
		}
		body["x"], body["y"] = p.X, p.Y
	}

	if err := apiCall(cfg, http.MethodPost, "/api/show", body, nil); err != nil {
		log.Fatalf("Show request failed: %v", err)
	}
}

func notifyActivity() {
	cfg := loadConfig()
	if err := apiCall(cfg, http.MethodPost, "/api/activity", nil, nil); err != nil {
		log.Fatalf("Activity notification failed: %v", err)
	}
}

func currentPointer() (pointer.Point, error) {
	backend, err := detector.New()
	if err != nil {
		return pointer.Point{}, err
	}
	defer backend.Close()

	st, err := backend.QueryPointer()
	if err != nil {
		return pointer.Point{}, err
	}
	return st.Position, nil
}

// apiCall talks to a running daemon's web API.
func apiCall(cfg *config.Config, method, path string, in, out interface{}) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
	}

	url := fmt.Sprintf("http://%s:%d%s", cfg.Web.Host, cfg.Web.Port, path)
	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "daemon web API not reachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("daemon returned %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func probe() {
	cfg := loadConfig()

	duration := 10 * time.Second
	if len(os.Args) > 2 {
		secs, err := strconv.Atoi(os.Args[2])
		if err != nil || secs <= 0 {
			log.Fatalf("Invalid duration %q", os.Args[2])
		}
		duration = time.Duration(secs) * time.Second
	}

	backend, err := detector.New()
	if err != nil {
		log.Fatalf("Failed to initialize pointer backend: %v", err)
	}
	defer backend.Close()

	smp := sampler.New(backend, backend, sampler.Config{
		CheckInterval:         cfg.Monitor.ForegroundCheckInterval.Duration,
		Allowlist:             cfg.Monitor.ProcessAllowlist,
		SuppressWhenMaximized: cfg.Monitor.SuppressWhenMaximized,
	})

	fmt.Printf("Display Server: %s\n", backend.DisplayServer())
	fmt.Printf("Probing for %v, move the pointer and switch windows\n\n", duration)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(duration)

	for {
		select {
		case <-timeout:
			fmt.Println("\nProbe completed")
			return

		case now := <-ticker.C:
			r, err := smp.Sample(now)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			app := "-"
			if r.Foreground != nil {
				app = r.Foreground.AppName
			}
			fmt.Printf("pointer=(%5d,%5d) pressed=%-5v active=%-5v app=%s\n",
				r.Position.X, r.Position.Y, r.ButtonDown, r.Active, truncate(app, 30))
		}
	}
}

func generateReport() {
	periodType := "day"
	if len(os.Args) > 2 && os.Args[2] != "--json" {
		periodType = os.Args[2]
	}

	jsonOutput := false
	for _, arg := range os.Args[2:] {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	cfg := loadConfig()

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)
	rep := reporter.New(cfg, repo)

	report, err := rep.GenerateReport(periodType)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if jsonOutput {
		jsonStr, err := rep.FormatReportJSON(report)
		if err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(jsonStr)
	} else {
		fmt.Println(rep.FormatReportText(report))
	}
}

func clearDatabase() {
	cfg := loadConfig()

	fmt.Print("This will delete all recorded triggers and errors. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	if err := repo.Clear(); err != nil {
		log.Fatalf("Failed to clear database: %v", err)
	}

	fmt.Println("Database cleared successfully")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
