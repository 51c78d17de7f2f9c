// Package clock abstracts wall-clock reads so time-window logic (TOTP steps,
// code expiry, throttle windows) can be driven deterministically in tests.
package clock
