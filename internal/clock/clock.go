package clock

import "time"

// Clock abstracts time so lifecycle timestamps are deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock { return systemClock{} }

// Fixed always reports the same instant.
type Fixed struct {
	Instant time.Time
}

// NewFixed returns a clock pinned to the given instant.
func NewFixed(t time.Time) *Fixed { return &Fixed{Instant: t} }

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed clock forward, for tests that need ordered
// timestamps.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
