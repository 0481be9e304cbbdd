// Package visibility decides when the auxiliary window is shown and when it is
// hidden again.
package visibility

import (
	"time"

	"github.com/shakewatch/shakewatch/pkg/intent"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// ActivitySource is the consumer side of the drop activity flag.
type ActivitySource interface {
	Pending() bool
	Consume() bool
}

// Config holds the hide timing.
type Config struct {
	CloseDelay    time.Duration // idle time after which a shown window is hidden
	ActivityGrace time.Duration // minimum quiet period after consumed activity
}

// State is the visibility of the window as tracked by the controller.
type State int

const (
	Hidden State = iota
	Shown
)

func (s State) String() string {
	if s == Shown {
		return "shown"
	}
	return "hidden"
}

// Controller is the Hidden/Shown state machine. Not safe for concurrent use.
type Controller struct {
	cfg      Config
	activity ActivitySource

	state        State
	lastRelevant time.Time
	quietUntil   time.Time
}

// New creates a controller in the Hidden state.
func New(cfg Config, activity ActivitySource) *Controller {
	return &Controller{cfg: cfg, activity: activity}
}

// Show moves to Shown and returns the ShowAt intent for pos. Used for shakes and
// for external requests alike.
func (c *Controller) Show(pos pointer.Point, source intent.Source, now time.Time) intent.Intent {
	c.state = Shown
	c.lastRelevant = now
	return intent.Intent{Kind: intent.ShowAt, Position: pos, Source: source, At: now}
}

// Tick consumes pending activity and returns a Hide intent once the window has
// been idle for the close delay.
func (c *Controller) Tick(now time.Time) (intent.Intent, bool) {
	if c.activity.Consume() {
		if c.state == Shown {
			c.lastRelevant = now
			c.quietUntil = now.Add(c.cfg.ActivityGrace)
		}
		return intent.Intent{}, false
	}

	if c.state != Shown {
		return intent.Intent{}, false
	}
	if now.Before(c.quietUntil) {
		return intent.Intent{}, false
	}
	if now.Sub(c.lastRelevant) < c.cfg.CloseDelay {
		return intent.Intent{}, false
	}
	// Activity that arrived after the Consume above still blocks the hide.
	if c.activity.Pending() {
		return intent.Intent{}, false
	}

	c.state = Hidden
	return intent.Intent{Kind: intent.Hide, Source: intent.SourceIdle, At: now}, true
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Shown reports whether the controller believes the window is visible.
func (c *Controller) Shown() bool {
	return c.state == Shown
}

// LastRelevant returns the time of the latest show or consumed activity.
func (c *Controller) LastRelevant() time.Time {
	return c.lastRelevant
}

// HideDue returns when the window would be hidden if nothing else happens.
// The zero time is returned while hidden.
func (c *Controller) HideDue() time.Time {
	if c.state != Shown {
		return time.Time{}
	}
	due := c.lastRelevant.Add(c.cfg.CloseDelay)
	if c.quietUntil.After(due) {
		return c.quietUntil
	}
	return due
}
