package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/domain/appointment/appointmenttest"
	"github.com/example/visa-rescheduler/internal/search"
)

func newRequest(t *testing.T, ref string) appointment.Request {
	t.Helper()
	r, err := appointment.ParseReferenceDate(ref)
	require.NoError(t, err)
	return appointment.Request{
		Reference:   r,
		Credentials: appointment.Credentials{Email: "me@example.com", Password: "hunter2"},
		Target:      appointment.Target{AppointmentID: "4242", ConsularID: "95", Region: "ca"},
	}
}

func newUsecase(t *testing.T, d *appointmenttest.Driver) (RescheduleEarlier, *appointmenttest.Clock) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	clock := appointmenttest.NewClock()
	return RescheduleEarlier{
		Sessions: SessionOpenerFunc(func(context.Context) (appointment.PageDriver, error) { return d, nil }),
		Search:   search.New(logger),
		Clock:    clock,
		Logger:   logger,
	}, clock
}

func stateChanges(d *appointmenttest.Driver) int {
	return d.TimeSelections() + d.Clicks(appointment.ControlReschedule) + d.Clicks(appointment.ControlConfirm)
}

func TestRescheduleBooksEarlierDate(t *testing.T) {
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.February, Year: 2024, Days: []string{"10"}},
	}}
	u, clock := newUsecase(t, d)

	out := u.Execute(context.Background(), newRequest(t, "2024-03-01"))

	require.Equal(t, appointment.OutcomeBooked, out.Kind, out.Reason)
	require.NotNil(t, out.Found)
	assert.Equal(t, "2024-02-10", out.Found.String())
	assert.Equal(t, 1, d.TimeSelections())
	assert.Equal(t, 1, d.Clicks(appointment.ControlReschedule))
	assert.Equal(t, 1, d.Clicks(appointment.ControlConfirm))
	assert.True(t, d.Closed())
	assert.Equal(t, clock.Now(), out.FinishedAt)
	assert.Equal(t, 10*time.Second, out.Duration())

	assert.Equal(t, []string{
		"https://ais.usvisa-info.com/en-ca/niv/users/sign_in",
		"https://ais.usvisa-info.com/en-ca/niv/schedule/4242/appointment",
	}, d.Gotos())
	assert.Equal(t, "me@example.com", d.Typed(appointment.ControlEmail))
	assert.Equal(t, "hunter2", d.Typed(appointment.ControlPassword))
	assert.Equal(t, "95", d.Option(appointment.ControlFacility))
	assert.Equal(t, 1, d.Clicks(appointment.ControlDateInput))
}

func TestRescheduleLeavesLaterDateAlone(t *testing.T) {
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.December, Year: 2023},
		{Month: time.January, Year: 2024, Days: []string{"15"}},
	}}
	u, _ := newUsecase(t, d)

	out := u.Execute(context.Background(), newRequest(t, "2023-12-27"))

	require.Equal(t, appointment.OutcomeNoBetterDate, out.Kind, out.Reason)
	assert.Equal(t, "2024-01-15", out.Found.String())
	assert.Equal(t, 0, stateChanges(d))
	assert.Equal(t, 1, d.Advances())
	assert.True(t, d.Closed())
}

func TestRescheduleDecisionIsStrict(t *testing.T) {
	tests := []struct {
		ref  string
		want appointment.OutcomeKind
	}{
		{"2024-05-11", appointment.OutcomeBooked},
		{"2024-05-10", appointment.OutcomeNoBetterDate},
		{"2024-05-09", appointment.OutcomeNoBetterDate},
		{"2023-01-01", appointment.OutcomeNoBetterDate},
		{"2030-01-01", appointment.OutcomeBooked},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			d := &appointmenttest.Driver{Months: []appointmenttest.Month{
				{Month: time.May, Year: 2024, Days: []string{"10"}},
			}}
			u, _ := newUsecase(t, d)
			out := u.Execute(context.Background(), newRequest(t, tt.ref))
			assert.Equal(t, tt.want, out.Kind)
			if tt.want == appointment.OutcomeBooked {
				assert.Equal(t, 1, d.TimeSelections())
				assert.Equal(t, 1, d.Clicks(appointment.ControlReschedule))
			} else {
				assert.Equal(t, 0, stateChanges(d))
			}
		})
	}
}

func TestRescheduleFailures(t *testing.T) {
	navErr := &appointment.PageError{Kind: appointment.ErrNavigation, Op: "goto", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	tests := []struct {
		name     string
		driver   *appointmenttest.Driver
		wantKind string
	}{
		{
			name:     "navigation",
			driver:   &appointmenttest.Driver{GotoErr: navErr},
			wantKind: "navigation",
		},
		{
			name: "login form missing",
			driver: &appointmenttest.Driver{FindErr: map[appointment.Control]error{
				appointment.ControlEmail: &appointment.PageError{Kind: appointment.ErrElementNotFound, Control: appointment.ControlEmail},
			}},
			wantKind: "element_not_found",
		},
		{
			name: "confirmation dialog absent",
			driver: &appointmenttest.Driver{
				Months: []appointmenttest.Month{{Month: time.February, Year: 2024, Days: []string{"1"}}},
				FindErr: map[appointment.Control]error{
					appointment.ControlConfirm: &appointment.PageError{Kind: appointment.ErrTimeout, Control: appointment.ControlConfirm},
				},
			},
			wantKind: "unexpected_page_state",
		},
		{
			name: "time select times out",
			driver: &appointmenttest.Driver{
				Months:  []appointmenttest.Month{{Month: time.February, Year: 2024, Days: []string{"1"}}},
				TimeErr: appointment.ErrTimeout,
			},
			wantKind: "timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _ := newUsecase(t, tt.driver)
			out := u.Execute(context.Background(), newRequest(t, "2024-03-01"))
			require.Equal(t, appointment.OutcomeFailed, out.Kind)
			assert.Equal(t, tt.wantKind, out.FailureKind())
			assert.NotEmpty(t, out.Reason)
			assert.True(t, tt.driver.Closed())
		})
	}
}

func TestRescheduleSearchExhausted(t *testing.T) {
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{{Month: time.January, Year: 2024}}}
	u, _ := newUsecase(t, d)
	u.Search.MaxAdvances = 3

	out := u.Execute(context.Background(), newRequest(t, "2024-03-01"))

	require.Equal(t, appointment.OutcomeFailed, out.Kind)
	assert.Equal(t, "date search exhausted", out.Reason)
	assert.ErrorIs(t, out.Err, appointment.ErrSearchExhausted)
	assert.Equal(t, 3, d.Advances())
	assert.Equal(t, 0, stateChanges(d))
}

func TestRescheduleSessionOpenFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	u := RescheduleEarlier{
		Sessions: SessionOpenerFunc(func(context.Context) (appointment.PageDriver, error) {
			return nil, errors.New("chromium: executable not found")
		}),
		Search: search.New(logger),
		Clock:  appointmenttest.NewClock(),
		Logger: logger,
	}
	out := u.Execute(context.Background(), newRequest(t, "2024-03-01"))
	assert.Equal(t, appointment.OutcomeFailed, out.Kind)
	assert.Contains(t, out.Reason, "open session")
	assert.Equal(t, "internal", out.FailureKind())
}

func TestRescheduleRejectsIncompleteRequest(t *testing.T) {
	d := &appointmenttest.Driver{}
	u, _ := newUsecase(t, d)
	req := newRequest(t, "2024-03-01")
	req.Target.ConsularID = ""

	out := u.Execute(context.Background(), req)
	assert.Equal(t, appointment.OutcomeFailed, out.Kind)
	assert.Empty(t, d.Gotos())
}

func TestCheckLogin(t *testing.T) {
	d := &appointmenttest.Driver{}
	u := CheckLogin{
		Sessions: SessionOpenerFunc(func(context.Context) (appointment.PageDriver, error) { return d, nil }),
		SignIn:   SignIn{Clock: appointmenttest.NewClock()},
	}
	err := u.Execute(context.Background(), "ca", appointment.Credentials{Email: "me@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Clicks(appointment.ControlPolicyAgree))
	assert.Equal(t, 1, d.Clicks(appointment.ControlSignIn))
	assert.True(t, d.Closed())
}
