// Package monitor runs the sampling loop that turns pointer shakes into window
// intents and hides the window again once it has been idle.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/internal/activity"
	"github.com/shakewatch/shakewatch/internal/config"
	"github.com/shakewatch/shakewatch/internal/models"
	"github.com/shakewatch/shakewatch/internal/placement"
	"github.com/shakewatch/shakewatch/internal/sampler"
	"github.com/shakewatch/shakewatch/internal/shake"
	"github.com/shakewatch/shakewatch/internal/visibility"
	"github.com/shakewatch/shakewatch/pkg/intent"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// ErrRequestQueueFull is returned by RequestShow when the loop is not keeping up.
var ErrRequestQueueFull = errors.New("show request queue full")

const requestQueueSize = 8

// Sampler produces one reading per tick.
type Sampler interface {
	Sample(now time.Time) (sampler.Reading, error)
}

// Recorder persists triggers and errors. Optional.
type Recorder interface {
	RecordTrigger(event *models.TriggerEvent) error
	RecordError(component string, err error) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Sampler       Sampler
	Screen        pointer.ScreenMetrics
	Activity      *activity.Signal
	Sink          intent.Sink
	Recorder      Recorder
	Clock         func() time.Time // defaults to time.Now
	DisplayServer string
}

// ShowRequest asks the loop to show the window outside of a shake, e.g. from a
// hotkey or the HTTP API.
type ShowRequest struct {
	Position pointer.Point
	Source   intent.Source
	Correct  bool // apply edge correction with the hotkey margin
}

// Status is a point-in-time snapshot of the loop.
type Status struct {
	Running       bool          `json:"running"`
	Active        bool          `json:"active"`
	Foreground    string        `json:"foreground,omitempty"`
	Shown         bool          `json:"shown"`
	Reversals     uint          `json:"reversals"`
	Direction     string        `json:"direction"`
	Pointer       pointer.Point `json:"pointer"`
	HideDue       time.Time     `json:"hide_due,omitempty"`
	LastTrigger   time.Time     `json:"last_trigger,omitempty"`
	Triggers      uint64        `json:"triggers"`
	ActivityTotal uint64        `json:"activity_total"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type Service struct {
	cfg  *config.Config
	deps Deps

	detector   *shake.Detector
	controller *visibility.Controller

	requests chan ShowRequest
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	gateOpen     bool
	lastErrorMsg string

	mu     sync.RWMutex
	status Status
}

func NewService(cfg *config.Config, deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Activity == nil {
		deps.Activity = activity.New()
	}

	m := cfg.Monitor
	return &Service{
		cfg:  cfg,
		deps: deps,
		detector: shake.New(shake.Config{
			RequiredShakes: m.RequiredShakes,
			TimeLimit:      m.ShakeTimeLimit.Duration,
			Threshold:      m.ShakeThreshold,
		}),
		controller: visibility.New(visibility.Config{
			CloseDelay:    m.WindowCloseDelay.Duration,
			ActivityGrace: m.ActivityGrace.Duration,
		}, deps.Activity),
		requests: make(chan ShowRequest, requestQueueSize),
		stopChan: make(chan struct{}),
	}
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("monitor is already running")
	}
	defer s.running.Store(false)

	interval := s.cfg.Monitor.SampleInterval.Duration
	log.Printf("Starting monitor with %v sample interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Step(s.deps.Clock())

	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Monitor stopped")
			return nil

		case req := <-s.requests:
			s.show(req, s.deps.Clock())

		case <-ticker.C:
			s.Step(s.deps.Clock())
		}
	}
}

// Stop ends a running loop. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// Activity returns the signal that drop notifications should be sent to.
func (s *Service) Activity() *activity.Signal {
	return s.deps.Activity
}

// RequestShow queues a show for the loop goroutine. It never blocks.
func (s *Service) RequestShow(req ShowRequest) error {
	if req.Source == "" {
		req.Source = intent.SourceAPI
	}
	select {
	case s.requests <- req:
		return nil
	default:
		return ErrRequestQueueFull
	}
}

// Step runs one iteration of the loop at now. Start calls it on every tick; it
// must only be called from one goroutine at a time.
func (s *Service) Step(now time.Time) {
	s.drainRequests(now)

	reading, err := s.deps.Sampler.Sample(now)

	if reading.Active != s.gateOpen {
		if !reading.Active {
			s.detector.Reset()
			log.Debug("Foreground gate closed, shake detection paused")
		} else {
			log.Debug("Foreground gate open, shake detection resumed")
		}
		s.gateOpen = reading.Active
	}

	if err != nil {
		s.reportError("sampler", err)
	} else {
		s.lastErrorMsg = ""
		if reading.Active {
			if ev, ok := s.detector.Observe(reading.Sample); ok {
				s.onShake(ev, reading.Foreground)
			}
		}
	}

	if hide, ok := s.controller.Tick(now); ok {
		log.WithField("idle", now.Sub(s.controller.LastRelevant())).Info("Hiding window after inactivity")
		s.emit(hide)
	}

	s.updateStatus(now, reading, err == nil)
}

// Status returns the latest snapshot. Safe for concurrent use.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Running = s.running.Load()
	st.ActivityTotal = s.deps.Activity.Total()
	return st
}

func (s *Service) onShake(ev shake.Event, fg *pointer.WindowInfo) {
	target := s.correct(ev.Position, s.cfg.ShakeMargin())

	log.WithFields(log.Fields{
		"reversals": ev.Reversals,
		"pointer":   ev.Position,
		"target":    target,
	}).Info("Shake detected")

	s.emit(s.controller.Show(target, intent.SourceShake, ev.At))
	s.noteTrigger(ev.At)

	trigger := &models.TriggerEvent{
		Timestamp:     ev.At,
		Source:        string(intent.SourceShake),
		PointerX:      ev.Position.X,
		PointerY:      ev.Position.Y,
		WindowX:       target.X,
		WindowY:       target.Y,
		Reversals:     ev.Reversals,
		DisplayServer: s.deps.DisplayServer,
	}
	if fg != nil {
		trigger.AppName = fg.AppName
	}
	s.record(trigger)
}

func (s *Service) show(req ShowRequest, now time.Time) {
	target := req.Position
	if req.Correct {
		target = s.correct(req.Position, s.cfg.Monitor.HotkeyMargin)
	}

	log.WithFields(log.Fields{
		"source": req.Source,
		"target": target,
	}).Info("Show requested")

	s.emit(s.controller.Show(target, req.Source, now))
	s.record(&models.TriggerEvent{
		Timestamp:     now,
		Source:        string(req.Source),
		PointerX:      req.Position.X,
		PointerY:      req.Position.Y,
		WindowX:       target.X,
		WindowY:       target.Y,
		DisplayServer: s.deps.DisplayServer,
	})
	s.noteTrigger(now)
}

func (s *Service) noteTrigger(at time.Time) {
	s.mu.Lock()
	s.status.Shown = true
	s.status.HideDue = s.controller.HideDue()
	s.status.LastTrigger = at
	s.status.Triggers++
	s.mu.Unlock()
}

func (s *Service) drainRequests(now time.Time) {
	for {
		select {
		case req := <-s.requests:
			s.show(req, now)
		default:
			return
		}
	}
}

// correct keeps the window on screen. Without screen metrics the position is used as is.
func (s *Service) correct(p pointer.Point, margin int) pointer.Point {
	if s.deps.Screen == nil {
		return p
	}
	size, err := s.deps.Screen.ScreenSize()
	if err != nil {
		s.reportError("screen", errors.Wrap(err, "failed to get screen size"))
		return p
	}
	return placement.Correct(p, margin, size)
}

func (s *Service) emit(in intent.Intent) {
	if err := s.deps.Sink.Emit(in); err != nil {
		log.WithError(err).Warnf("Failed to emit %s", in)
		s.recordError("monitor", err)
	}
}

func (s *Service) record(event *models.TriggerEvent) {
	if s.deps.Recorder == nil {
		return
	}
	if err := s.deps.Recorder.RecordTrigger(event); err != nil {
		log.Printf("Failed to store trigger: %v", err)
	}
}

// reportError logs repeated identical errors once.
func (s *Service) reportError(component string, err error) {
	msg := err.Error()
	if msg == s.lastErrorMsg {
		return
	}
	s.lastErrorMsg = msg
	log.WithField("component", component).Warn(msg)
	s.recordError(component, err)
}

func (s *Service) recordError(component string, err error) {
	if s.deps.Recorder == nil {
		return
	}
	if dbErr := s.deps.Recorder.RecordError(component, err); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	}
}

func (s *Service) updateStatus(now time.Time, reading sampler.Reading, sampled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.status
	st.Active = reading.Active
	st.Foreground = ""
	if reading.Foreground != nil {
		st.Foreground = reading.Foreground.AppName
		if st.Foreground == "" {
			st.Foreground = reading.Foreground.ProcessName
		}
	}
	if sampled {
		st.Pointer = reading.Position
	}
	st.Shown = s.controller.Shown()
	st.HideDue = s.controller.HideDue()
	st.Reversals = s.detector.Count()
	st.Direction = s.detector.Direction().String()
	st.UpdatedAt = now
}
