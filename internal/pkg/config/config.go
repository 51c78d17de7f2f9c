// Package config exposes typed, read-only access to application settings.
package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of various types.
// Missing keys and values that cannot be converted yield the zero value.
type Config interface {
	io.Closer

	// IsSet reports whether key has a value from any source, defaults included.
	IsSet(key string) bool

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// GetMillisecond, GetSecond and GetMinute read an integer and scale it to a duration.
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary retrieves a base64 encoded value as raw bytes, nil when it does not decode.
	GetBinary(key string) []byte

	// GetArray retrieves a list either from a YAML sequence or from a
	// comma separated string. Elements are trimmed and empty ones dropped.
	GetArray(key string) []string
}
