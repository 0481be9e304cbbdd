package intent

import (
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/pkg/pointer"
)

// LogExecutor only logs intents. Used when no window tool is available (dry run).
type LogExecutor struct{}

func (LogExecutor) ShowAt(p pointer.Point) error {
	log.WithFields(log.Fields{"x": p.X, "y": p.Y}).Info("Show window (dry run)")
	return nil
}

func (LogExecutor) Hide() error {
	log.Info("Hide window (dry run)")
	return nil
}
