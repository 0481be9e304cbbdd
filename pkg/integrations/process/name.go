// Package process resolves window PIDs to executable names.
package process

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
)

// Name returns the executable name for pid. Sandboxed apps (Flatpak, Snap) may
// report a PID from another namespace, in which case an error is returned.
func Name(pid uint32) (string, error) {
	if pid == 0 {
		return "", errors.New("no PID")
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", errors.Wrapf(err, "failed to open process %d", pid)
	}

	name, err := p.Name()
	if err == nil && name != "" {
		return name, nil
	}

	exe, exeErr := p.Exe()
	if exeErr != nil {
		if err == nil {
			err = exeErr
		}
		return "", errors.Wrapf(err, "failed to read name of process %d", pid)
	}
	return strings.TrimSuffix(filepath.Base(exe), " (deleted)"), nil
}

// NameOr returns Name(pid), or fallback when it cannot be resolved.
func NameOr(pid uint32, fallback string) string {
	name, err := Name(pid)
	if err != nil {
		return fallback
	}
	return name
}
