package entity

import "errors"

var (
	ErrNotConfigured        = errors.New("identity: mfa is not configured")
	ErrAlreadyEnabled       = errors.New("identity: mfa is already enabled")
	ErrNotEnabled           = errors.New("identity: mfa is not enabled")
	ErrNotVerified          = errors.New("identity: mfa is not verified")
	ErrInvalidCode          = errors.New("identity: invalid verification code")
	ErrInvalidMethod        = errors.New("identity: invalid mfa method")
	ErrMisconfiguredChannel = errors.New("identity: no sender bound for mfa method")
	ErrDeliveryFailed       = errors.New("identity: failed to deliver verification code")
	ErrThrottled            = errors.New("identity: too many verification attempts")
	ErrInvalidEnrollment    = errors.New("identity: enrollment violates method invariants")
)
