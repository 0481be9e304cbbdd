// Package hybrid combines a pointer source from one integration with the
// foreground window from another. On Wayland the pointer comes from XWayland
// and the foreground from the compositor.
package hybrid

import (
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// PointerBackend is the part of a backend that reads the pointer and screen.
type PointerBackend interface {
	pointer.PointerSource
	pointer.ScreenMetrics
	IsAvailable() bool
	Close() error
}

// Backend implements pointer.Backend from two halves.
type Backend struct {
	pointer       PointerBackend
	foreground    pointer.ForegroundContext
	displayServer string
}

// New combines ptr and fg. A nil fg falls back to ptr's own foreground lookup
// when it has one.
func New(ptr PointerBackend, fg pointer.ForegroundContext, displayServer string) *Backend {
	if fg == nil {
		if own, ok := ptr.(pointer.ForegroundContext); ok {
			fg = own
		} else {
			log.Warn("No foreground window source, shake detection will not be gated")
		}
	}
	return &Backend{pointer: ptr, foreground: fg, displayServer: displayServer}
}

func (b *Backend) QueryPointer() (pointer.State, error) {
	return b.pointer.QueryPointer()
}

func (b *Backend) ScreenSize() (pointer.Size, error) {
	return b.pointer.ScreenSize()
}

// ForegroundWindow returns (nil, nil) without a foreground source, which the
// sampler treats as "no window" and gates by the allowlist.
func (b *Backend) ForegroundWindow() (*pointer.WindowInfo, error) {
	if b.foreground == nil {
		return nil, nil
	}
	info, err := b.foreground.ForegroundWindow()
	if err != nil {
		return nil, err
	}
	if info != nil && info.DisplayServer == "" {
		info.DisplayServer = b.displayServer
	}
	return info, nil
}

func (b *Backend) IsAvailable() bool {
	return b.pointer.IsAvailable()
}

func (b *Backend) DisplayServer() string {
	return b.displayServer
}

func (b *Backend) Close() error {
	return b.pointer.Close()
}
