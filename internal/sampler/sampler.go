// Package sampler reads the pointer once per tick and decides, at a lower rate,
// whether the foreground window allows shake detection at all.
package sampler

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/internal/shake"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// Config controls the foreground gate.
type Config struct {
	CheckInterval         time.Duration
	Allowlist             []string // foreground process or app names; empty allows any
	SuppressWhenMaximized bool     // also suppresses fullscreen windows
}

// Reading is the result of one tick.
type Reading struct {
	shake.Sample
	Active     bool                // foreground gate is open
	Foreground *pointer.WindowInfo // from the latest gate check, may be nil
}

// Sampler combines a pointer source with a cached foreground gate.
// Not safe for concurrent use.
type Sampler struct {
	pointer    pointer.PointerSource
	foreground pointer.ForegroundContext
	cfg        Config
	allow      map[string]struct{}

	lastCheck time.Time
	active    bool
	window    *pointer.WindowInfo
	lastErr   string
}

// New creates a sampler. A nil foreground context leaves the gate always open.
func New(ps pointer.PointerSource, fg pointer.ForegroundContext, cfg Config) *Sampler {
	allow := make(map[string]struct{}, len(cfg.Allowlist))
	for _, name := range cfg.Allowlist {
		if n := normalizeName(name); n != "" {
			allow[n] = struct{}{}
		}
	}
	return &Sampler{
		pointer:    ps,
		foreground: fg,
		cfg:        cfg,
		allow:      allow,
		active:     fg == nil,
	}
}

// Sample queries the pointer and, when due, re-evaluates the foreground gate.
// On a pointer error the returned Reading still carries the gate state.
func (s *Sampler) Sample(now time.Time) (Reading, error) {
	s.refreshGate(now)

	st, err := s.pointer.QueryPointer()
	if err != nil {
		return Reading{Active: s.active, Foreground: s.window}, errors.Wrap(err, "failed to query pointer")
	}

	return Reading{
		Sample: shake.Sample{
			At:         now,
			Position:   st.Position,
			ButtonDown: st.ButtonDown,
		},
		Active:     s.active,
		Foreground: s.window,
	}, nil
}

// Active reports the cached gate decision.
func (s *Sampler) Active() bool {
	return s.active
}

// Allows reports whether shake detection may run while info owns the foreground.
func (s *Sampler) Allows(info *pointer.WindowInfo) bool {
	if info == nil {
		return len(s.allow) == 0
	}

	if len(s.allow) > 0 {
		_, byProcess := s.allow[normalizeName(info.ProcessName)]
		_, byApp := s.allow[normalizeName(info.AppName)]
		if !byProcess && !byApp {
			return false
		}
	}

	if s.cfg.SuppressWhenMaximized && (info.Maximized || info.Fullscreen) {
		return false
	}

	return true
}

func (s *Sampler) refreshGate(now time.Time) {
	if s.foreground == nil {
		return
	}
	if !s.lastCheck.IsZero() && now.Sub(s.lastCheck) < s.cfg.CheckInterval {
		return
	}
	s.lastCheck = now

	info, err := s.foreground.ForegroundWindow()
	if err != nil {
		s.active = false
		s.window = nil
		if msg := err.Error(); msg != s.lastErr {
			log.Printf("Foreground check failed, detection paused: %v", err)
			s.lastErr = msg
		}
		return
	}
	s.lastErr = ""

	s.window = info
	s.active = s.Allows(info)
}

// normalizeName lowercases a process name and strips any directory and .exe suffix.
func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	n = filepath.Base(strings.ReplaceAll(n, "\\", "/"))
	return strings.TrimSuffix(n, ".exe")
}
