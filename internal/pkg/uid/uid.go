// Package uid generates identifiers: snowflake int64 keys for rows and
// UUID strings for correlation ids.
package uid

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
