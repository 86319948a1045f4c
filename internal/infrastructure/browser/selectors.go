package browser

import "github.com/example/visa-rescheduler/internal/domain/appointment"

// selectors lists the locator alternatives for each control, most specific first.
var selectors = map[appointment.Control][]string{
	appointment.ControlEmail: {
		"#user_email",
		"input[type=email]",
	},
	appointment.ControlPassword: {
		"#user_password",
		"input[type=password]",
	},
	appointment.ControlPolicyAgree: {
		"#sign_in_form > div.radio-checkbox-group.margin-top-30 > label > div",
		"#sign_in_form div.radio-checkbox-group label",
	},
	appointment.ControlSignIn: {
		`role=button[name="Sign In"]`,
		"#new_user > p:nth-child(9) > input",
		"#sign_in_form input[type=submit]",
	},
	appointment.ControlFacility: {
		"#appointments_consulate_appointment_facility_id",
	},
	appointment.ControlDateInput: {
		"#appointments_consulate_appointment_date",
	},
	// Day cells stay inside the first rendered month so they pair with the
	// header read by ReadMonthLabel.
	appointment.ControlSelectableDay: {
		"#ui-datepicker-div > div.ui-datepicker-group-first td[data-handler='selectDay']",
		"#ui-datepicker-div > div.ui-datepicker-group-first > table > tbody > tr > td.undefined > a",
		"#ui-datepicker-div > table td[data-handler='selectDay']",
	},
	appointment.ControlNextMonth: {
		"#ui-datepicker-div > div.ui-datepicker-group.ui-datepicker-group-last > div > a > span",
		"#ui-datepicker-div a.ui-datepicker-next",
	},
	appointment.ControlTime: {
		"#appointments_consulate_appointment_time",
	},
	appointment.ControlReschedule: {
		"#appointments_submit",
		`role=button[name="Reschedule"]`,
	},
	appointment.ControlConfirm: {
		"body > div.reveal-overlay > div > div > a.button.alert",
		".reveal-overlay a.button.alert",
	},
}

// monthLabelSelectors locate the header spans of the first rendered month.
var monthLabelSelectors = []string{
	"#ui-datepicker-div > div.ui-datepicker-group.ui-datepicker-group-first > div > div span",
	"#ui-datepicker-div > div.ui-datepicker-group > div > div span",
	"#ui-datepicker-div .ui-datepicker-title span",
}

// textInputTypes are typed key by key; anything else gets its value set directly.
var textInputTypes = map[string]bool{
	"textarea": true, "select-one": true, "text": true, "url": true, "tel": true,
	"search": true, "password": true, "number": true, "email": true,
}
