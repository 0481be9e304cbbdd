package pointer

import "github.com/pkg/errors"

// ErrUnavailable is returned by a backend when a query cannot be answered right now
// (no display connection, no active window, cursor on another screen).
var ErrUnavailable = errors.New("pointer: query unavailable")

// Point is a position in screen pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a screen extent in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State is a single pointer reading
type State struct {
	Position   Point
	ButtonDown bool // primary button currently pressed
}

// WindowInfo represents information about the window that currently owns the foreground
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	PID           uint32
	Maximized     bool
	Fullscreen    bool
	DisplayServer string
}

// PointerSource reports the current pointer position and primary button state
type PointerSource interface {
	// QueryPointer returns the pointer state at the time of the call
	QueryPointer() (State, error)
}

// ForegroundContext reports which window owns the foreground
type ForegroundContext interface {
	// ForegroundWindow returns information about the focused top-level window
	ForegroundWindow() (*WindowInfo, error)
}

// ScreenMetrics reports the dimensions of the screen the pointer lives on
type ScreenMetrics interface {
	ScreenSize() (Size, error)
}

// Backend is the interface that all platform implementations must satisfy
type Backend interface {
	PointerSource
	ForegroundContext
	ScreenMetrics

	// IsAvailable checks if this backend can run on the current system
	IsAvailable() bool

	// DisplayServer returns the display server type ("x11")
	DisplayServer() string

	// Close releases the connection to the display server
	Close() error
}
