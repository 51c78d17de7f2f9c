// Package throttle counts attempts per key inside a fixed window stored in
// Redis, so every process sharing the Redis instance sees the same budget.
package throttle
