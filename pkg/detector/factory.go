package detector

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/pkg/integrations/hybrid"
	"github.com/shakewatch/shakewatch/pkg/integrations/wayland"
	"github.com/shakewatch/shakewatch/pkg/integrations/x11"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// New returns the pointer backend for the current session.
func New() (pointer.Backend, error) {
	switch ds := DetectDisplayServer(); ds {
	case "x11":
		xb, err := x11.NewBackend()
		if err != nil {
			return nil, err
		}
		return xb, nil

	case "wayland":
		// The global pointer is only observable through XWayland.
		xb, err := x11.NewBackend()
		if err != nil {
			return nil, errors.Wrap(err, "wayland session without XWayland")
		}

		var fg pointer.ForegroundContext
		if w := wayland.NewForeground(); w.IsAvailable() {
			fg = w
			log.Printf("Using %s IPC for foreground window", w.Compositor())
		} else {
			log.Printf("Compositor %s has no supported IPC, using XWayland foreground window", w.Compositor())
		}
		return hybrid.New(xb, fg, "wayland"), nil

	default:
		return nil, errors.Wrapf(pointer.ErrUnavailable, "unsupported display server %q", ds)
	}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
