package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/wait"
)

// SessionOpener starts a fresh page session. One session is live per attempt.
type SessionOpener interface {
	Open(ctx context.Context) (appointment.PageDriver, error)
}

// SessionOpenerFunc adapts a function to SessionOpener.
type SessionOpenerFunc func(ctx context.Context) (appointment.PageDriver, error)

func (f SessionOpenerFunc) Open(ctx context.Context) (appointment.PageDriver, error) { return f(ctx) }

// SignIn authenticates on the portal and leaves the driver logged in.
type SignIn struct {
	Portal         appointment.Portal
	ElementTimeout time.Duration
	Settle         time.Duration
	Clock          wait.Clock
}

func (s SignIn) Execute(ctx context.Context, d appointment.PageDriver, region string, creds appointment.Credentials) error {
	if err := d.Goto(ctx, s.Portal.SignInURL(region)); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := s.typeInto(ctx, d, appointment.ControlEmail, creds.Email); err != nil {
		return err
	}
	if err := s.typeInto(ctx, d, appointment.ControlPassword, creds.Password); err != nil {
		return err
	}
	if err := s.click(ctx, d, appointment.ControlPolicyAgree); err != nil {
		return err
	}
	if err := s.click(ctx, d, appointment.ControlSignIn); err != nil {
		return err
	}
	return s.clock().Sleep(ctx, s.Settle)
}

func (s SignIn) typeInto(ctx context.Context, d appointment.PageDriver, c appointment.Control, text string) error {
	el, err := d.Find(ctx, c, s.ElementTimeout)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := el.Type(ctx, text); err != nil {
		return fmt.Errorf("sign in: type %s: %w", c, err)
	}
	return nil
}

func (s SignIn) click(ctx context.Context, d appointment.PageDriver, c appointment.Control) error {
	el, err := d.Find(ctx, c, s.ElementTimeout)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("sign in: click %s: %w", c, err)
	}
	return nil
}

func (s SignIn) clock() wait.Clock {
	if s.Clock == nil {
		return wait.RealClock
	}
	return s.Clock
}

// CheckLogin opens a session and signs in without touching the calendar.
type CheckLogin struct {
	Sessions SessionOpener
	SignIn   SignIn
}

func (u CheckLogin) Execute(ctx context.Context, region string, creds appointment.Credentials) (err error) {
	if u.Sessions == nil {
		return fmt.Errorf("session opener is nil")
	}
	d, err := u.Sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close session: %w", cerr)
		}
	}()
	return u.SignIn.Execute(ctx, d, region, creds)
}
