// Package xdotool moves, shows and hides the auxiliary window by title.
package xdotool

import (
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// ErrWindowNotFound is returned when no window matches the configured title.
var ErrWindowNotFound = errors.New("window not found")

type runner func(args ...string) ([]byte, error)

// Executor implements intent.Executor with the xdotool CLI.
type Executor struct {
	title string
	run   runner
}

// NewExecutor targets the first window whose name matches title exactly.
func NewExecutor(title string) *Executor {
	return &Executor{
		title: title,
		run: func(args ...string) ([]byte, error) {
			return exec.Command("xdotool", args...).Output()
		},
	}
}

// Available reports whether xdotool is on PATH.
func Available() bool {
	_, err := exec.LookPath("xdotool")
	return err == nil
}

// ShowAt maps the window, moves its top-left corner to p, raises and focuses it.
// Mapping also restores a minimized window.
func (e *Executor) ShowAt(p pointer.Point) error {
	id, err := e.window()
	if err != nil {
		return err
	}

	steps := [][]string{
		{"windowmap", id},
		{"windowmove", id, strconv.Itoa(p.X), strconv.Itoa(p.Y)},
		{"windowactivate", id},
	}
	for _, args := range steps {
		if _, err := e.run(args...); err != nil {
			return errors.Wrapf(err, "xdotool %s failed", args[0])
		}
	}
	return nil
}

// Hide unmaps the window.
func (e *Executor) Hide() error {
	id, err := e.window()
	if err != nil {
		return err
	}
	if _, err := e.run("windowunmap", id); err != nil {
		return errors.Wrap(err, "xdotool windowunmap failed")
	}
	return nil
}

func (e *Executor) window() (string, error) {
	// --all also matches unmapped (hidden) windows.
	out, err := e.run("search", "--all", "--limit", "1", "--name", "^"+regexp.QuoteMeta(e.title)+"$")
	if err != nil {
		return "", errors.Wrapf(ErrWindowNotFound, "%q", e.title)
	}
	id := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if id == "" {
		return "", errors.Wrapf(ErrWindowNotFound, "%q", e.title)
	}
	return id, nil
}
