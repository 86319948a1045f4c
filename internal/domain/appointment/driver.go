package appointment

import (
	"context"
	"time"
)

// Control names a page element by what it is, not how it is located.
type Control string

const (
	ControlEmail         Control = "email"
	ControlPassword      Control = "password"
	ControlPolicyAgree   Control = "policy_agree"
	ControlSignIn        Control = "sign_in"
	ControlFacility      Control = "facility"
	ControlDateInput     Control = "date_input"
	ControlSelectableDay Control = "selectable_day"
	ControlNextMonth     Control = "next_month"
	ControlTime          Control = "time"
	ControlReschedule    Control = "reschedule"
	ControlConfirm       Control = "confirm"
)

// Element is a located page element.
type Element interface {
	Click(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
}

// PageDriver is the UI automation capability the core drives. Find returns an
// error matching ErrElementNotFound or ErrTimeout when the control is absent.
type PageDriver interface {
	Goto(ctx context.Context, url string) error
	Find(ctx context.Context, c Control, timeout time.Duration) (Element, error)
	SelectOption(ctx context.Context, c Control, value string) error
	ReadMonthLabel(ctx context.Context) (month, year string, err error)
	SelectFirstAvailableTime(ctx context.Context) error
	Close() error
}
