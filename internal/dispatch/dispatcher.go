// Package dispatch applies intents from the monitor loop to the real window.
package dispatch

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shakewatch/shakewatch/pkg/intent"
)

// ErrorRecorder stores executor failures. Optional.
type ErrorRecorder interface {
	RecordError(component string, err error) error
}

type Dispatcher struct {
	intents  <-chan intent.Intent
	executor intent.Executor
	recorder ErrorRecorder

	executed uint64
	failed   uint64
}

func New(intents <-chan intent.Intent, executor intent.Executor, recorder ErrorRecorder) *Dispatcher {
	return &Dispatcher{
		intents:  intents,
		executor: executor,
		recorder: recorder,
	}
}

// Run executes intents until ctx is cancelled or the channel is closed.
// Executor failures are logged and never stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-d.intents:
			if !ok {
				return nil
			}
			if err := d.Execute(in); err != nil {
				log.WithError(err).Warn("Window action failed")
				if d.recorder != nil {
					if dbErr := d.recorder.RecordError("dispatch", err); dbErr != nil {
						log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
					}
				}
			}
		}
	}
}

// Execute performs a single intent.
func (d *Dispatcher) Execute(in intent.Intent) error {
	var err error
	switch in.Kind {
	case intent.ShowAt:
		err = d.executor.ShowAt(in.Position)
	case intent.Hide:
		err = d.executor.Hide()
	default:
		err = errors.Errorf("unknown intent kind %d", int(in.Kind))
	}

	if err != nil {
		d.failed++
		return errors.Wrapf(err, "failed to execute %s", in)
	}
	d.executed++
	log.WithField("intent", in.String()).Debug("Executed window action")
	return nil
}

// Counts returns how many intents succeeded and failed. Only meaningful after Run returns.
func (d *Dispatcher) Counts() (executed, failed uint64) {
	return d.executed, d.failed
}
