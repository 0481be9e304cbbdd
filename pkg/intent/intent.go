package intent

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// ErrQueueFull is returned by Queue.Emit when the consumer has fallen behind.
var ErrQueueFull = errors.New("intent queue full")

// Kind identifies what the windowing collaborator should do.
type Kind int

const (
	// ShowAt moves the window, shows it, restores it if minimized and focuses it.
	ShowAt Kind = iota + 1
	// Hide hides the window.
	Hide
)

func (k Kind) String() string {
	switch k {
	case ShowAt:
		return "show_at"
	case Hide:
		return "hide"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source names what caused a show.
type Source string

const (
	SourceShake  Source = "shake"
	SourceHotkey Source = "hotkey"
	SourceTray   Source = "tray"
	SourceAPI    Source = "api"
	SourceIdle   Source = "idle"
)

// Intent is a declarative window action.
type Intent struct {
	Kind     Kind
	Position pointer.Point // target position for ShowAt
	Source   Source
	At       time.Time
}

func (i Intent) String() string {
	if i.Kind == ShowAt {
		return fmt.Sprintf("%s(%d,%d) from %s", i.Kind, i.Position.X, i.Position.Y, i.Source)
	}
	return fmt.Sprintf("%s from %s", i.Kind, i.Source)
}

// Sink accepts intents produced by the monitor loop. Emit must not block.
type Sink interface {
	Emit(Intent) error
}

// Executor performs intents against a real window. Implementations are called
// from the dispatcher goroutine only.
type Executor interface {
	ShowAt(p pointer.Point) error
	Hide() error
}

// Queue is a bounded Sink backed by a channel.
type Queue struct {
	ch chan Intent
}

// NewQueue creates a queue holding up to size pending intents.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Intent, size)}
}

// Emit enqueues an intent without blocking.
func (q *Queue) Emit(i Intent) error {
	select {
	case q.ch <- i:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "dropping %s", i)
	}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Intent {
	return q.ch
}

// Len returns the number of pending intents.
func (q *Queue) Len() int {
	return len(q.ch)
}
