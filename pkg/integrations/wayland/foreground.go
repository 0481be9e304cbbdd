// Package wayland reads the focused window from compositors that expose it over
// IPC. Wayland has no global pointer query, so this only provides the
// foreground half of a backend; see the hybrid package.
package wayland

import (
	"encoding/json"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/shakewatch/shakewatch/pkg/integrations/process"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

const (
	CompositorSway     = "sway"
	CompositorHyprland = "hyprland"
	CompositorUnknown  = "unknown"
)

type runner func(name string, args ...string) ([]byte, error)

func execOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Foreground implements pointer.ForegroundContext for sway and Hyprland.
type Foreground struct {
	compositor string
	run        runner
	lookupName func(pid uint32, fallback string) string
}

// NewForeground detects the running compositor from its IPC environment.
func NewForeground() *Foreground {
	return &Foreground{
		compositor: DetectCompositor(),
		run:        execOutput,
		lookupName: process.NameOr,
	}
}

// DetectCompositor returns the compositor whose IPC socket is advertised.
func DetectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return CompositorSway
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return CompositorHyprland
	}
	return CompositorUnknown
}

func (f *Foreground) Compositor() string {
	return f.compositor
}

func (f *Foreground) IsAvailable() bool {
	switch f.compositor {
	case CompositorSway:
		return commandExists("swaymsg")
	case CompositorHyprland:
		return commandExists("hyprctl")
	default:
		return false
	}
}

func (f *Foreground) ForegroundWindow() (*pointer.WindowInfo, error) {
	var (
		info *pointer.WindowInfo
		err  error
	)

	switch f.compositor {
	case CompositorSway:
		out, runErr := f.run("swaymsg", "-t", "get_tree")
		if runErr != nil {
			return nil, errors.Wrap(runErr, "failed to execute swaymsg")
		}
		info, err = parseSwayTree(out)
	case CompositorHyprland:
		out, runErr := f.run("hyprctl", "activewindow", "-j")
		if runErr != nil {
			return nil, errors.Wrap(runErr, "failed to execute hyprctl")
		}
		info, err = parseHyprlandWindow(out)
	default:
		return nil, errors.Errorf("unsupported wayland compositor: %s", f.compositor)
	}
	if err != nil {
		return nil, err
	}

	info.DisplayServer = "wayland"
	info.ProcessName = f.lookupName(info.PID, info.AppName)
	return info, nil
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

type swayNode struct {
	Focused          bool   `json:"focused"`
	AppID            string `json:"app_id"`
	Name             string `json:"name"`
	PID              uint32 `json:"pid"`
	FullscreenMode   int    `json:"fullscreen_mode"`
	WindowProperties struct {
		Class string `json:"class"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

func parseSwayTree(data []byte) (*pointer.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse sway tree")
	}

	node := findFocused(&root)
	if node == nil {
		return nil, errors.New("no focused sway window")
	}

	app := node.AppID
	if app == "" {
		app = node.WindowProperties.Class // XWayland clients
	}
	return &pointer.WindowInfo{
		AppName:     app,
		WindowTitle: node.Name,
		PID:         node.PID,
		Fullscreen:  node.FullscreenMode != 0,
	}, nil
}

// findFocused returns the focused leaf; workspaces and outputs are never reported.
func findFocused(n *swayNode) *swayNode {
	if n.Focused && n.PID != 0 {
		return n
	}
	for i := range n.Nodes {
		if f := findFocused(&n.Nodes[i]); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := findFocused(&n.FloatingNodes[i]); f != nil {
			return f
		}
	}
	return nil
}

type hyprlandWindow struct {
	Class      string          `json:"class"`
	Title      string          `json:"title"`
	PID        int64           `json:"pid"`
	Fullscreen json.RawMessage `json:"fullscreen"`
}

func parseHyprlandWindow(data []byte) (*pointer.WindowInfo, error) {
	var w hyprlandWindow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "failed to parse hyprctl output")
	}
	if w.Class == "" && w.Title == "" {
		return nil, errors.New("no focused hyprland window")
	}

	info := &pointer.WindowInfo{
		AppName:     w.Class,
		WindowTitle: w.Title,
	}
	if w.PID > 0 {
		info.PID = uint32(w.PID)
	}
	info.Maximized, info.Fullscreen = hyprlandFullscreen(w.Fullscreen)
	return info, nil
}

// hyprlandFullscreen handles both the old boolean field and the newer mode
// number (0 none, 1 maximized, 2 fullscreen).
func hyprlandFullscreen(raw json.RawMessage) (maximized, fullscreen bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return false, b
	}
	var mode int
	if err := json.Unmarshal(raw, &mode); err == nil {
		return mode == 1, mode >= 2
	}
	return false, false
}
