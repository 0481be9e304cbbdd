package x11

import (
	"os"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/shakewatch/shakewatch/pkg/integrations/process"
	"github.com/shakewatch/shakewatch/pkg/pointer"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"_NET_WM_STATE",
	"_NET_WM_STATE_MAXIMIZED_VERT",
	"_NET_WM_STATE_MAXIMIZED_HORZ",
	"_NET_WM_STATE_FULLSCREEN",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Backend implements pointer.Backend over a single X connection.
// It also serves XWayland sessions, where only X clients report pointer motion.
type Backend struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewBackend connects to $DISPLAY.
func NewBackend() (*Backend, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, errors.Wrap(pointer.ErrUnavailable, "DISPLAY is not set")
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	b := &Backend{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		b.atoms[name] = reply.Atom
	}

	return b, nil
}

func (b *Backend) IsAvailable() bool {
	return b.conn != nil
}

func (b *Backend) DisplayServer() string {
	return "x11"
}

// QueryPointer reads the pointer position relative to the root window and the
// state of the primary button.
func (b *Backend) QueryPointer() (pointer.State, error) {
	reply, err := xproto.QueryPointer(b.conn, b.root).Reply()
	if err != nil {
		return pointer.State{}, errors.Wrap(err, "QueryPointer failed")
	}
	return pointer.State{
		Position:   pointer.Point{X: int(reply.RootX), Y: int(reply.RootY)},
		ButtonDown: reply.Mask&xproto.KeyButMaskButton1 != 0,
	}, nil
}

// ScreenSize returns the root window geometry, which follows RandR changes.
func (b *Backend) ScreenSize() (pointer.Size, error) {
	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(b.root)).Reply()
	if err != nil {
		return pointer.Size{}, errors.Wrap(err, "failed to get root geometry")
	}
	return pointer.Size{Width: int(geom.Width), Height: int(geom.Height)}, nil
}

// ForegroundWindow describes the window the window manager reports as active.
func (b *Backend) ForegroundWindow() (*pointer.WindowInfo, error) {
	win, err := b.activeWindow()
	if err != nil {
		return nil, err
	}

	instance, class := parseWMClass(b.property(win, "WM_CLASS", xproto.AtomString, 256))
	pid := b.windowPID(win)
	maximized, fullscreen := b.windowState(win)

	info := &pointer.WindowInfo{
		AppName:       appName(instance, class),
		WindowTitle:   b.windowName(win),
		PID:           pid,
		Maximized:     maximized,
		Fullscreen:    fullscreen,
		DisplayServer: "x11",
	}
	info.ProcessName = process.NameOr(pid, instance)
	if info.AppName == "" {
		info.AppName = info.ProcessName
	}
	return info, nil
}

func (b *Backend) Close() error {
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	return nil
}

func (b *Backend) activeWindow() (xproto.Window, error) {
	if data := b.property(b.root, "_NET_ACTIVE_WINDOW", xproto.AtomWindow, 1); len(data) >= 4 {
		if win := xproto.Window(get32(data)); win != 0 {
			return win, nil
		}
	}

	// Window managers without EWMH: fall back to the focus holder's top-level parent.
	focus, err := xproto.GetInputFocus(b.conn).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get input focus")
	}
	if focus.Focus == 0 || focus.Focus == b.root || focus.Focus == xproto.InputFocusPointerRoot {
		return 0, errors.New("no active window found")
	}
	return b.topLevel(focus.Focus), nil
}

func (b *Backend) topLevel(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(b.conn, win).Reply()
		if err != nil || reply.Parent == b.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (b *Backend) property(win xproto.Window, name string, typ xproto.Atom, length uint32) []byte {
	atom, ok := b.atoms[name]
	if !ok {
		return nil
	}
	reply, err := xproto.GetProperty(b.conn, false, win, atom, typ, 0, length).Reply()
	if err != nil {
		return nil
	}
	return reply.Value
}

func (b *Backend) windowName(win xproto.Window) string {
	if data := b.property(win, "_NET_WM_NAME", b.atoms["UTF8_STRING"], 256); len(data) > 0 {
		return trimNull(data)
	}
	return trimNull(b.property(win, "WM_NAME", xproto.AtomString, 256))
}

func (b *Backend) windowPID(win xproto.Window) uint32 {
	data := b.property(win, "_NET_WM_PID", xproto.AtomCardinal, 1)
	if len(data) < 4 {
		return 0
	}
	return get32(data)
}

func (b *Backend) windowState(win xproto.Window) (maximized, fullscreen bool) {
	return stateFlags(
		parseAtoms(b.property(win, "_NET_WM_STATE", xproto.AtomAtom, 32)),
		b.atoms["_NET_WM_STATE_MAXIMIZED_VERT"],
		b.atoms["_NET_WM_STATE_MAXIMIZED_HORZ"],
		b.atoms["_NET_WM_STATE_FULLSCREEN"],
	)
}
