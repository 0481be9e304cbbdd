// Package placement keeps a window anchored at the pointer from opening past the
// right or bottom edge of the screen.
package placement

import "github.com/shakewatch/shakewatch/pkg/pointer"

// Correct shifts p left and/or up by margin when p plus margin would cross the screen edge.
func Correct(p pointer.Point, margin int, screen pointer.Size) pointer.Point {
	out := p
	if p.X+margin > screen.Width {
		out.X = p.X - margin
	}
	if p.Y+margin > screen.Height {
		out.Y = p.Y - margin
	}
	return out
}
