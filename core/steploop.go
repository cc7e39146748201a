package core

import (
	"context"
	"errors"
)

// errLoopDone is the step function's way of ending a StepLoop without
// reporting a failure.
var errLoopDone = errors.New("invoker: loop done")

// StepLoop repeatedly executes a step function on the calling goroutine until
// the context is cancelled, the step reports completion, or the step fails.
//
// It is the reusable repeat-until-cancelled base the Invoker's run loop is
// built on, by composition rather than embedding: the Invoker owns a StepLoop
// and supplies the dequeue-and-execute body as the step.
type StepLoop struct {
	step func(ctx context.Context) error
}

func NewStepLoop(step func(ctx context.Context) error) *StepLoop {
	return &StepLoop{step: step}
}

// Run executes steps back to back on the calling goroutine. It returns nil on
// cooperative completion (context cancelled, or the step signalled done) and
// the step's error otherwise. Cancellation is checked between steps; steps
// that block internally are expected to observe ctx themselves.
func (l *StepLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := l.step(ctx); err != nil {
			if errors.Is(err, errLoopDone) {
				return nil
			}
			return err
		}
	}
}
