package clock

import (
	"sync"
	"time"
)

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system time in a fixed location.
type TimeClocker struct {
	loc *time.Location
}

// New returns a TimeClocker in UTC.
func New() *TimeClocker {
	return &TimeClocker{loc: time.UTC}
}

// NewInLocation returns a TimeClocker that reports times in loc.
// A nil loc means UTC.
func NewInLocation(loc *time.Location) *TimeClocker {
	if loc == nil {
		loc = time.UTC
	}
	return &TimeClocker{loc: loc}
}

// Now returns the current system time.
func (c *TimeClocker) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a Clocker that only moves when told to.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a Fixed clock pinned at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set pins the clock at t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
