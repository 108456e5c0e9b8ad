package runtime

import "time"

// Clock provides the time sources the run-time depends on, so tests can
// drive timers with simulated time.
//
// Monotonic is used for elapsed-time accumulation and must never go
// backwards. Now is the wall clock handed to timer callbacks when a timer
// was registered with a wall-clock snapshot.
type Clock interface {
	// Monotonic returns nanoseconds from an arbitrary fixed origin.
	Monotonic() int64

	// Now returns the current wall-clock time.
	Now() time.Time
}

// RealClock uses the standard time package. The monotonic reading is taken
// from time.Since against a fixed process-start origin, which Go backs with
// the OS monotonic clock.
type RealClock struct {
	origin time.Time
}

// NewRealClock creates a clock backed by the OS monotonic clock.
func NewRealClock() *RealClock {
	return &RealClock{origin: time.Now()}
}

// Monotonic returns nanoseconds since the clock was created.
func (c *RealClock) Monotonic() int64 { return int64(time.Since(c.origin)) }

// Now returns the current wall-clock time.
func (c *RealClock) Now() time.Time { return time.Now() }

// FakeClock is a test clock that only moves when manually advanced.
type FakeClock struct {
	nanos int64
	wall  time.Time
}

// NewFakeClock creates a fake clock with its wall time set to start and its
// monotonic reading at zero.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{wall: start}
}

// Monotonic returns the simulated monotonic reading in nanoseconds.
func (f *FakeClock) Monotonic() int64 { return f.nanos }

// Now returns the simulated wall-clock time.
func (f *FakeClock) Now() time.Time { return f.wall }

// Advance moves both the monotonic and wall readings forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.nanos += int64(d)
	f.wall = f.wall.Add(d)
}

// Set sets the wall-clock reading without touching the monotonic one.
func (f *FakeClock) Set(t time.Time) { f.wall = t }
