// Package otp implements the one-time code primitives used by the MFA flows:
// a lenient Base32 secret decoder, an HMAC-SHA256 TOTP engine with a bounded
// skew window, a CSPRNG-backed numeric code generator for out-of-band
// channels, and authenticator provisioning (secret, otpauth URI, QR image).
//
// Everything in this package is pure or takes its randomness and time from
// the caller, so it is safe for concurrent use.
package otp
