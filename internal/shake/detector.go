// Package shake recognizes a rapid left-right shake of the pointer while the
// primary button is held down.
//
// The detector is a debounced reversal counter. Horizontal motion between two
// consecutive samples is classified as Left, Right or None against a pixel
// threshold. A reversal is a classified direction that differs from the
// reference direction, which is the direction at the previous counted reversal
// (or the first classified direction since the detector went idle). Reversals
// that arrive within the time limit of the previous one accumulate; once the
// required number is reached a single Event is produced and the count restarts.
//
// Detector is not safe for concurrent use. It is owned by the monitor loop.
package shake

import (
	"time"

	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// Direction is the classified horizontal motion of one tick.
type Direction int

const (
	None Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// Config holds the detector parameters.
type Config struct {
	RequiredShakes uint          // reversals needed to fire
	TimeLimit      time.Duration // max gap between counted reversals
	Threshold      int           // min |dx| in pixels for a tick to have a direction
}

// Sample is one pointer reading fed to the detector.
type Sample struct {
	At         time.Time
	Position   pointer.Point
	ButtonDown bool
}

// Event reports a recognized shake.
type Event struct {
	Position  pointer.Point
	At        time.Time
	Reversals uint
}

// Detector is the shake state machine.
type Detector struct {
	cfg Config

	lastPosition pointer.Point
	havePosition bool

	reference    Direction
	count        uint
	lastReversal time.Time
}

// New creates a detector in the idle state.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Observe advances the state machine by one sample. It returns an Event and true
// when the sample completes a shake.
func (d *Detector) Observe(s Sample) (Event, bool) {
	defer d.remember(s.Position)

	if !s.ButtonDown {
		d.idle()
		return Event{}, false
	}

	if !d.havePosition {
		return Event{}, false
	}

	// A long pause without a counted reversal forgets the accumulated count.
	// The reference direction survives so the next reversal starts a fresh count.
	if d.reference != None && s.At.Sub(d.lastReversal) > d.cfg.TimeLimit {
		d.count = 0
	}

	dir := Classify(s.Position.X-d.lastPosition.X, d.cfg.Threshold)
	switch {
	case dir == None:
	case d.reference == None:
		d.reference = dir
		d.lastReversal = s.At
	case dir != d.reference:
		d.count++
		d.reference = dir
		d.lastReversal = s.At
	}

	if d.count >= d.cfg.RequiredShakes && d.cfg.RequiredShakes > 0 {
		ev := Event{Position: s.Position, At: s.At, Reversals: d.count}
		d.count = 0
		return ev, true
	}

	return Event{}, false
}

// Reset returns the detector to idle and forgets the last position, so the next
// sample only establishes a new baseline.
func (d *Detector) Reset() {
	d.idle()
	d.havePosition = false
}

// Count returns the number of reversals accumulated toward the next shake.
func (d *Detector) Count() uint {
	return d.count
}

// Direction returns the current reference direction.
func (d *Detector) Direction() Direction {
	return d.reference
}

func (d *Detector) idle() {
	d.count = 0
	d.reference = None
	d.lastReversal = time.Time{}
}

func (d *Detector) remember(p pointer.Point) {
	d.lastPosition = p
	d.havePosition = true
}

// Classify maps a horizontal displacement to a direction.
func Classify(dx, threshold int) Direction {
	switch {
	case dx > threshold:
		return Right
	case dx < -threshold:
		return Left
	default:
		return None
	}
}
