package entity

import (
	"strings"
	"time"
)

// Enrollment is a user's single MFA registration. It is never deleted; a
// disabled enrollment keeps its record and verification state.
type Enrollment struct {
	ID     int64
	UserID int64
	Method MFAMethod
	// Secret is the sealed Base32 shared secret; authenticator only.
	Secret      []byte
	PhoneNumber string
	Email       string
	IsVerified  bool
	IsEnabled   bool
	// Version changes every time the enrollment is set up again. Codes and
	// state changes are bound to the version they were checked against.
	Version    int64
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks that exactly the fields matching Method are present and
// that an enabled enrollment is verified.
func (e *Enrollment) Validate() error {
	if e.IsEnabled && !e.IsVerified {
		return ErrNotVerified
	}

	hasSecret := len(e.Secret) > 0
	switch e.Method {
	case MFAMethodAuthenticator:
		if !hasSecret || e.PhoneNumber != "" || e.Email != "" {
			return ErrInvalidEnrollment
		}
	case MFAMethodSMS:
		if hasSecret || e.PhoneNumber == "" || e.Email != "" {
			return ErrInvalidEnrollment
		}
	case MFAMethodEmail:
		if hasSecret || e.Email == "" || e.PhoneNumber != "" {
			return ErrInvalidEnrollment
		}
	default:
		return ErrInvalidMethod
	}

	return nil
}

// Verify marks the enrollment as proven by a correct code.
func (e *Enrollment) Verify() {
	e.IsVerified = true
}

// Enable turns MFA on. It requires a verified enrollment.
func (e *Enrollment) Enable() error {
	if e.IsEnabled {
		return ErrAlreadyEnabled
	}
	if !e.IsVerified {
		return ErrNotVerified
	}
	e.IsEnabled = true
	return nil
}

// Disable turns MFA off, keeping IsVerified.
func (e *Enrollment) Disable() error {
	if !e.IsEnabled {
		return ErrNotEnabled
	}
	e.IsEnabled = false
	return nil
}

// Destination is the phone number or email codes are sent to.
func (e *Enrollment) Destination() string {
	switch e.Method {
	case MFAMethodSMS:
		return e.PhoneNumber
	case MFAMethodEmail:
		return e.Email
	default:
		return ""
	}
}

// MaskedDestination hides most of the destination for display.
func (e *Enrollment) MaskedDestination() string {
	switch e.Method {
	case MFAMethodSMS:
		return maskTail(e.PhoneNumber, 4)
	case MFAMethodEmail:
		local, domain, ok := strings.Cut(e.Email, "@")
		if !ok || local == "" {
			return "***"
		}
		return local[:1] + "***@" + domain
	default:
		return ""
	}
}

func maskTail(s string, keep int) string {
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keep) + s[len(s)-keep:]
}
