package appointment

import (
	"fmt"
	"strings"
)

const DefaultPortalHost = "ais.usvisa-info.com"

// Portal builds the locale-specific URLs of the appointment portal.
type Portal struct {
	Host string
}

func (p Portal) base(region string) string {
	host := strings.TrimRight(strings.TrimSpace(p.Host), "/")
	if host == "" {
		host = DefaultPortalHost
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	return fmt.Sprintf("https://%s/en-%s/niv", host, strings.ToLower(region))
}

func (p Portal) SignInURL(region string) string {
	return p.base(region) + "/users/sign_in"
}

func (p Portal) AppointmentURL(region, appointmentID string) string {
	return p.base(region) + "/schedule/" + appointmentID + "/appointment"
}
