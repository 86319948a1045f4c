// Package scheduler repeats reschedule attempts at a fixed delay until one books.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/wait"
)

type State int32

const (
	StateIdle State = iota
	StateAttempting
	StateWaiting
	StateBooked
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateWaiting:
		return "waiting"
	case StateBooked:
		return "booked"
	default:
		return "idle"
	}
}

// Attempter runs one end-to-end attempt.
type Attempter interface {
	Execute(ctx context.Context, req appointment.Request) appointment.Outcome
}

// Recorder persists attempt outcomes. Failures to record never stop polling.
type Recorder interface {
	Record(ctx context.Context, runID uuid.UUID, attempt int, req appointment.Request, out appointment.Outcome) error
}

// Observer receives every outcome, e.g. for metrics.
type Observer interface {
	ObserveOutcome(out appointment.Outcome)
	ObserveState(s State)
}

// recordTimeout bounds one history write, including after shutdown began.
const recordTimeout = 5 * time.Second

type Scheduler struct {
	Attempts Attempter
	Delay    time.Duration
	Clock    wait.Clock
	Recorder Recorder
	Observer Observer
	Logger   logrus.FieldLogger

	state    atomic.Int32
	attempts atomic.Int64
}

// Run polls until an attempt books, returning nil. Failed and no-better-date
// outcomes, and panics inside an attempt, are logged and retried after Delay.
// Only ctx cancellation ends Run early.
func (s *Scheduler) Run(ctx context.Context, req appointment.Request) error {
	if s.Attempts == nil {
		return fmt.Errorf("scheduler: attempter is nil")
	}
	if s.Delay <= 0 {
		return fmt.Errorf("scheduler: retry delay must be > 0")
	}
	runID := uuid.New()
	log := s.logger().WithFields(logrus.Fields{"run_id": runID.String(), "retry_delay": s.Delay.String()})
	log.WithField("reference", req.Reference.Format("2006-01-02")).Info("scheduler started")

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			s.setState(StateIdle)
			return err
		}

		s.setState(StateAttempting)
		s.attempts.Add(1)
		out := s.attempt(ctx, req)
		s.record(ctx, runID, n, req, out, log)

		entry := log.WithFields(logrus.Fields{"attempt": n, "outcome": out.Kind.String()})
		if out.Found != nil {
			entry = entry.WithField("found", out.Found.String())
		}
		switch out.Kind {
		case appointment.OutcomeBooked:
			s.setState(StateBooked)
			entry.Info("successfully scheduled a new appointment")
			return nil
		case appointment.OutcomeNoBetterDate:
			entry.Info("no earlier available appointment date found")
		default:
			entry.WithFields(logrus.Fields{"kind": out.FailureKind(), "reason": out.Reason}).Warn("attempt failed")
		}

		s.setState(StateWaiting)
		if err := s.clock().Sleep(ctx, s.Delay); err != nil {
			s.setState(StateIdle)
			return err
		}
	}
}

// attempt converts a panic into a Failed outcome.
func (s *Scheduler) attempt(ctx context.Context, req appointment.Request) (out appointment.Outcome) {
	started := s.clock().Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger().WithField("stack", string(debug.Stack())).Error("attempt panicked")
			out = appointment.Failed(fmt.Errorf("attempt panicked: %v", r))
			out.StartedAt = started
			out.FinishedAt = s.clock().Now()
		}
	}()
	return s.Attempts.Execute(ctx, req)
}

func (s *Scheduler) record(ctx context.Context, runID uuid.UUID, n int, req appointment.Request, out appointment.Outcome, log logrus.FieldLogger) {
	if s.Observer != nil {
		s.Observer.ObserveOutcome(out)
	}
	if s.Recorder == nil {
		return
	}
	// The attempt that was interrupted by shutdown is still worth a history row.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.Recorder.Record(rctx, runID, n, req, out); err != nil {
		log.WithError(err).Warn("record attempt")
	}
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

// AttemptCount is the number of attempts started since the scheduler was created.
func (s *Scheduler) AttemptCount() int64 { return s.attempts.Load() }

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
	if s.Observer != nil {
		s.Observer.ObserveState(st)
	}
}

func (s *Scheduler) clock() wait.Clock {
	if s.Clock == nil {
		return wait.RealClock
	}
	return s.Clock
}

func (s *Scheduler) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
