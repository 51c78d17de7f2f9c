package sms

import (
	"context"
	"errors"
)

var (
	// ErrAPIKeyRequired is returned when the provider API key is empty.
	ErrAPIKeyRequired = errors.New("sms: api key is required")
	// ErrEmptyNumber is returned for an empty destination.
	ErrEmptyNumber = errors.New("sms: empty phone number")
)

// Sender sends a one-time code to a phone number.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}
