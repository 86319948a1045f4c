package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/search"
	"github.com/example/visa-rescheduler/internal/wait"
)

const (
	DefaultSettle        = time.Second
	DefaultConfirmSettle = 5 * time.Second
)

// RescheduleEarlier runs one attempt: sign in, open the calendar, search, and
// book when the first available date beats the reference date.
type RescheduleEarlier struct {
	Sessions       SessionOpener
	Search         *search.Engine
	Portal         appointment.Portal
	ElementTimeout time.Duration
	Settle         time.Duration
	ConfirmSettle  time.Duration
	Clock          wait.Clock
	Logger         logrus.FieldLogger
}

// Execute never returns an error; every failure is folded into a Failed outcome.
func (u RescheduleEarlier) Execute(ctx context.Context, req appointment.Request) appointment.Outcome {
	started := u.clock().Now()
	out := u.execute(ctx, req)
	out.StartedAt = started
	out.FinishedAt = u.clock().Now()
	return out
}

func (u RescheduleEarlier) execute(ctx context.Context, req appointment.Request) appointment.Outcome {
	if u.Sessions == nil || u.Search == nil {
		return appointment.Failed(fmt.Errorf("reschedule: sessions and search are required"))
	}
	if err := req.Validate(); err != nil {
		return appointment.Failed(err)
	}
	log := u.logger().WithField("appointment_id", req.Target.AppointmentID)

	d, err := u.Sessions.Open(ctx)
	if err != nil {
		return appointment.Failed(fmt.Errorf("open session: %w", err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("close session")
		}
	}()

	signIn := SignIn{Portal: u.Portal, ElementTimeout: u.ElementTimeout, Settle: u.settle(), Clock: u.Clock}
	log.WithField("url", u.Portal.SignInURL(req.Target.Region)).Info("signing in")
	if err := signIn.Execute(ctx, d, req.Target.Region, req.Credentials); err != nil {
		return appointment.Failed(err)
	}

	if err := u.openCalendar(ctx, d, req, log); err != nil {
		return appointment.Failed(err)
	}

	log.Info("searching for the first available date")
	res, earlier, err := u.Search.SearchEarlier(ctx, req.Reference, d)
	if err != nil {
		return appointment.Failed(fmt.Errorf("search: %w", err))
	}
	fields := logrus.Fields{"found": res.Found.String(), "reference": req.Reference.Format("2006-01-02")}
	if !earlier {
		log.WithFields(fields).Info("found date is not earlier than the current appointment")
		return appointment.NoBetterDate(res.Found)
	}

	log.WithFields(fields).Info("found an earlier date, booking")
	if err := u.book(ctx, d, log); err != nil {
		return appointment.Failed(err)
	}
	return appointment.Booked(res.Found)
}

func (u RescheduleEarlier) openCalendar(ctx context.Context, d appointment.PageDriver, req appointment.Request, log logrus.FieldLogger) error {
	url := u.Portal.AppointmentURL(req.Target.Region, req.Target.AppointmentID)
	log.WithField("url", url).Info("going to the appointment page")
	if err := d.Goto(ctx, url); err != nil {
		return fmt.Errorf("appointment page: %w", err)
	}

	log.WithField("consular_id", req.Target.ConsularID).Info("selecting consular section")
	if err := d.SelectOption(ctx, appointment.ControlFacility, req.Target.ConsularID); err != nil {
		return fmt.Errorf("select consular section: %w", err)
	}
	if err := u.clock().Sleep(ctx, u.settle()); err != nil {
		return err
	}

	log.Info("opening the date picker")
	if err := u.click(ctx, d, appointment.ControlDateInput); err != nil {
		return err
	}
	return u.clock().Sleep(ctx, u.settle())
}

// book is the only step that changes remote state.
func (u RescheduleEarlier) book(ctx context.Context, d appointment.PageDriver, log logrus.FieldLogger) error {
	log.Info("selecting the first available time")
	if err := d.SelectFirstAvailableTime(ctx); err != nil {
		return fmt.Errorf("select time: %w", err)
	}
	if err := u.clock().Sleep(ctx, u.settle()); err != nil {
		return err
	}

	log.Info("submitting reschedule")
	if err := u.click(ctx, d, appointment.ControlReschedule); err != nil {
		return err
	}
	if err := u.clock().Sleep(ctx, u.settle()); err != nil {
		return err
	}

	log.Info("confirming reschedule")
	confirm, err := d.Find(ctx, appointment.ControlConfirm, u.ElementTimeout)
	if err != nil {
		return &appointment.PageError{Kind: appointment.ErrUnexpectedPageState, Op: "confirmation dialog", Control: appointment.ControlConfirm, Err: err}
	}
	if err := confirm.Click(ctx); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	return u.clock().Sleep(ctx, u.confirmSettle())
}

func (u RescheduleEarlier) click(ctx context.Context, d appointment.PageDriver, c appointment.Control) error {
	el, err := d.Find(ctx, c, u.ElementTimeout)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", c, err)
	}
	return nil
}

func (u RescheduleEarlier) settle() time.Duration {
	if u.Settle <= 0 {
		return DefaultSettle
	}
	return u.Settle
}

func (u RescheduleEarlier) confirmSettle() time.Duration {
	if u.ConfirmSettle <= 0 {
		return DefaultConfirmSettle
	}
	return u.ConfirmSettle
}

func (u RescheduleEarlier) clock() wait.Clock {
	if u.Clock == nil {
		return wait.RealClock
	}
	return u.Clock
}

func (u RescheduleEarlier) logger() logrus.FieldLogger {
	if u.Logger == nil {
		return logrus.StandardLogger()
	}
	return u.Logger
}
