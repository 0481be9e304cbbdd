package x11

import (
	"encoding/binary"
	"strings"

	"github.com/jezek/xgb/xproto"
)

// get32 decodes a CARD32 in the byte order xgb negotiates with the server.
func get32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func trimNull(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

// parseWMClass splits a WM_CLASS value ("instance\x00Class\x00").
func parseWMClass(data []byte) (instance, class string) {
	if len(data) == 0 {
		return "", ""
	}
	parts := strings.Split(trimNull(data), "\x00")
	instance = parts[0]
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

// appName prefers the class name, which is what users recognise (Firefox, not Navigator).
func appName(instance, class string) string {
	if class != "" {
		return class
	}
	return instance
}

func parseAtoms(data []byte) []xproto.Atom {
	atoms := make([]xproto.Atom, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		atoms = append(atoms, xproto.Atom(get32(data[i:])))
	}
	return atoms
}

// stateFlags reports maximized only when both axes are maximized.
func stateFlags(state []xproto.Atom, maxVert, maxHorz, full xproto.Atom) (maximized, fullscreen bool) {
	var vert, horz bool
	for _, a := range state {
		switch a {
		case 0:
		case maxVert:
			vert = true
		case maxHorz:
			horz = true
		case full:
			fullscreen = true
		}
	}
	return vert && horz, fullscreen
}
