package otp

import (
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	// Digits is the number of decimal digits in a TOTP code.
	Digits = 6

	// DefaultPeriod is the time step used when none is configured.
	DefaultPeriod = 30 * time.Second
	// DefaultSkew is the number of steps tolerated on each side of the current one.
	DefaultSkew = 1
	// MaxSkew bounds the skew window to limit brute-force exposure.
	MaxSkew = 2
)

var (
	// ErrInvalidPeriod is returned when the time step is not a positive whole number of seconds.
	ErrInvalidPeriod = errors.New("otp: period must be a positive number of seconds")
	// ErrInvalidSkew is returned when the skew is negative or larger than MaxSkew.
	ErrInvalidSkew = fmt.Errorf("otp: skew must be between 0 and %d", MaxSkew)
)

var (
	rawEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

	sha256Opts = hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA256,
	}
)

// GenerateCode derives the 6-digit HMAC-SHA256 code for key at the given
// time step.
func GenerateCode(key []byte, step uint64) (string, error) {
	return hotp.GenerateCodeCustom(rawEncoding.EncodeToString(key), step, sha256Opts)
}

// TOTP generates and verifies time-based codes with a fixed period and skew.
type TOTP struct {
	period int64
	skew   int64
}

// NewTOTP validates the period and skew and returns a TOTP engine.
func NewTOTP(period time.Duration, skew int) (*TOTP, error) {
	if period < time.Second || period%time.Second != 0 {
		return nil, ErrInvalidPeriod
	}
	if skew < 0 || skew > MaxSkew {
		return nil, ErrInvalidSkew
	}

	return &TOTP{period: int64(period / time.Second), skew: int64(skew)}, nil
}

// Period returns the configured time step.
func (t *TOTP) Period() time.Duration {
	return time.Duration(t.period) * time.Second
}

// Step maps an instant to its time step.
func (t *TOTP) Step(at time.Time) int64 {
	unix := at.Unix()
	step := unix / t.period
	if unix < 0 && unix%t.period != 0 {
		step--
	}
	return step
}

// Generate returns the code for the step containing at.
func (t *TOTP) Generate(key []byte, at time.Time) (string, error) {
	return GenerateCode(key, uint64(t.Step(at)))
}

// Verify reports whether code matches any step within the skew window around at.
//
// Every candidate step is evaluated so the running time does not depend on
// which step matched. Malformed codes never match.
func (t *TOTP) Verify(key []byte, code string, at time.Time) (bool, error) {
	if !IsNumeric(code, Digits) {
		return false, nil
	}

	current := t.Step(at)
	matched := 0
	for delta := -t.skew; delta <= t.skew; delta++ {
		step := current + delta
		if step < 0 {
			continue
		}
		want, err := GenerateCode(key, uint64(step))
		if err != nil {
			return false, err
		}
		matched |= subtle.ConstantTimeCompare([]byte(want), []byte(code))
	}

	return matched == 1, nil
}

// IsNumeric reports whether s is exactly n ASCII digits.
func IsNumeric(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
