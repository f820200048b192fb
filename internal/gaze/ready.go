package gaze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultReadyInterval = 500 * time.Millisecond
	DefaultReadyTimeout  = 20 * time.Second
)

// ErrReadyTimeout is returned when the engine did not come up in time.
var ErrReadyTimeout = errors.New("gaze source did not become ready")

var errNotReady = errors.New("gaze source not ready yet")

// ReadinessProbe is polled while waiting for the engine.
type ReadinessProbe interface {
	IsReady() bool
}

// failureReporter is implemented by probes that can report a definitive
// failure, such as a denied camera permission.
type failureReporter interface {
	Failure() error
}

// WaitReady polls the probe at a constant interval until it is ready, it
// reports a failure, timeout elapses or ctx is cancelled.
func WaitReady(ctx context.Context, probe ReadinessProbe, interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = DefaultReadyInterval
	}
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	operation := func() error {
		if fr, ok := probe.(failureReporter); ok {
			if err := fr.Failure(); err != nil {
				return backoff.Permanent(err)
			}
		}
		if probe.IsReady() {
			return nil
		}
		return errNotReady
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx))
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errNotReady):
		return fmt.Errorf("%w after %s", ErrReadyTimeout, timeout)
	default:
		return err
	}
}
