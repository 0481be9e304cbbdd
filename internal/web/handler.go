package web

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/internal/activity"
	"github.com/shakewatch/shakewatch/internal/config"
	"github.com/shakewatch/shakewatch/internal/database"
	"github.com/shakewatch/shakewatch/internal/models"
	"github.com/shakewatch/shakewatch/internal/monitor"
	"github.com/shakewatch/shakewatch/internal/reporter"
	"github.com/shakewatch/shakewatch/pkg/intent"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// Monitor is the part of the monitor service exposed over HTTP.
type Monitor interface {
	Status() monitor.Status
	RequestShow(req monitor.ShowRequest) error
	Activity() *activity.Signal
}

type Handler struct {
	config   *config.Config
	repo     *database.Repository
	reporter *reporter.Reporter
	monitor  Monitor
}

func NewHandler(cfg *config.Config, repo *database.Repository, mon Monitor) *Handler {
	return &Handler{
		config:   cfg,
		repo:     repo,
		reporter: reporter.New(cfg, repo),
		monitor:  mon,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events", h.handleEvents)
	mux.HandleFunc("/api/events/latest", h.handleLatestEvent)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/activity", h.handleActivity)
	mux.HandleFunc("/api/show", h.handleShow)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	since := time.Now().Add(-24 * time.Hour)
	if periodType := query.Get("period"); periodType != "" {
		period, err := h.reporter.Period(periodType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		since = period.Start
	}

	events, err := h.repo.GetEventsSince(since)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch events: %v", err), http.StatusInternalServerError)
		return
	}

	limit := 100 // default
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	if events == nil {
		events = []*models.TriggerEvent{}
	}

	respondJSON(w, http.StatusOK, events)
}

func (h *Handler) handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := h.repo.GetLatest()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest event: %v", err), http.StatusInternalServerError)
		return
	}

	if event == nil {
		http.Error(w, "No events found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		respondSummaryHTML(w, report)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":      report.Period,
		"sources":     report.Sources,
		"total_count": report.TotalCount,
	})
}

func respondSummaryHTML(w http.ResponseWriter, report *models.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Sources) == 0 {
		w.Write([]byte(`<div class="loading">No triggers yet</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, s := range report.Sources {
		fmt.Fprintf(&b, `
		<div class="source-item" style="--bar-width: %.1f%%">
			<span class="source-name">%s</span>
			<span class="source-count">%d</span>
		</div>`, s.Percentage, html.EscapeString(s.Source), s.Count)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<div class="total">Total: %d</div>`, report.TotalCount)

	w.Write([]byte(b.String()))
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	logs, err := h.repo.GetRecentErrors(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*models.ErrorLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m := h.config.Monitor
	status := map[string]interface{}{
		"required_shakes":    m.RequiredShakes,
		"shake_time_limit":   m.ShakeTimeLimit.String(),
		"shake_threshold":    m.ShakeThreshold,
		"window_close_delay": m.WindowCloseDelay.String(),
		"database_path":      h.config.Database.Path,
	}

	if h.monitor != nil {
		status["monitor"] = h.monitor.Status()
	} else {
		status["monitor"] = nil
	}

	if latest, _ := h.repo.GetLatest(); latest != nil {
		status["latest_event"] = map[string]interface{}{
			"event_id":  latest.EventID,
			"source":    latest.Source,
			"timestamp": latest.Timestamp,
			"app_name":  latest.AppName,
		}
	}

	respondJSON(w, http.StatusOK, status)
}

// handleActivity lets the auxiliary window report drag/drop activity so it is
// not hidden while in use.
func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.monitor == nil {
		http.Error(w, "Monitor not running", http.StatusServiceUnavailable)
		return
	}

	sig := h.monitor.Activity()
	sig.Notify()
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"pending": sig.Pending(),
		"total":   sig.Total(),
	})
}

type showRequest struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Source  string `json:"source"`
	Correct bool   `json:"correct"`
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.monitor == nil {
		http.Error(w, "Monitor not running", http.StatusServiceUnavailable)
		return
	}

	var req showRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	source, err := parseSource(req.Source)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = h.monitor.RequestShow(monitor.ShowRequest{
		Position: pointer.Point{X: req.X, Y: req.Y},
		Source:   source,
		Correct:  req.Correct,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// parseSource accepts the sources an external caller may claim.
func parseSource(s string) (intent.Source, error) {
	switch src := intent.Source(strings.ToLower(strings.TrimSpace(s))); src {
	case "":
		return intent.SourceAPI, nil
	case intent.SourceAPI, intent.SourceHotkey, intent.SourceTray:
		return src, nil
	default:
		return "", fmt.Errorf("invalid source %q (valid: api, hotkey, tray)", s)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

func respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}
