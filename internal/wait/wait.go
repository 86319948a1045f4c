// Package wait implements the bounded wait: evaluate a condition at a fixed
// interval until it holds or a deadline passes.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

const DefaultInterval = 2 * time.Second

var ErrTimedOut = fmt.Errorf("bounded wait: %w", appointment.ErrTimeout)

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock uses the monotonic wall clock and a context-aware timer.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Poller struct {
	Timeout  time.Duration
	Interval time.Duration
	Clock    Clock
}

// Until evaluates cond until it returns true. The deadline is fixed at entry;
// a check is only made while it lies ahead, so cond is never evaluated past it.
// A cond error ends the wait immediately.
func (p Poller) Until(ctx context.Context, cond func(context.Context) (bool, error)) error {
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := clock.Now().Add(p.Timeout)

	for checks := 1; ; checks++ {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !clock.Now().Add(interval).Before(deadline) {
			return fmt.Errorf("%w after %s (%d checks)", ErrTimedOut, p.Timeout, checks)
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}
