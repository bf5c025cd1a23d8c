package service

import "errors"

// Denial reasons recorded when a login is refused. They are logged and
// counted internally; HTTP handlers render one generic message for all of
// them so responses never reveal whether an address is on the allow-list.
const (
	DenialReasonDomain    = "domain"
	DenialReasonNotListed = "instructor-not-listed"
)

// UnauthorizedError is returned when a verified identity is refused access
// to the platform. It carries no session and creates no state.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return "login not authorized: " + e.Reason
}

// IsUnauthorized reports whether err is (or wraps) an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// UnauthorizedReason returns the denial reason, or empty string when err is
// not an UnauthorizedError.
func UnauthorizedReason(err error) string {
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ""
}
