package runtime

import (
	"fmt"
	"time"
)

// TimerCallback is invoked in-line from Timer.Update when the timer fires.
// triggeredAt is a wall-clock snapshot when the timer was registered with
// WallClock, and the zero time otherwise.
type TimerCallback func(source *Timer, triggeredAt time.Time)

// Timer is a named periodic countdown with pause/resume/stop semantics.
//
// A Timer is passive: it only advances when Update is called, which the
// owning App does once per loop iteration. Periods are whole milliseconds;
// elapsed time accumulates in monotonic nanoseconds to avoid cumulative
// rounding error.
type Timer struct {
	name     string
	period   int64 // milliseconds
	callback TimerCallback
	clock    Clock

	// wallClock controls whether the callback receives a wall-clock
	// snapshot or the zero time.
	wallClock bool

	triggerCount uint64
	running      bool
	paused       bool
	duration     int64 // accumulated elapsed, nanoseconds
	before       int64 // monotonic baseline, nanoseconds
}

// Name returns the timer's name, unique within the owning App.
func (t *Timer) Name() string { return t.name }

// Period returns the timer period in milliseconds.
func (t *Timer) Period() int64 { return t.period }

// TriggerCount returns how many times the timer has fired since it was
// last started or stopped.
func (t *Timer) TriggerCount() uint64 { return t.triggerCount }

// IsRunning reports whether the timer is armed.
func (t *Timer) IsRunning() bool { return t.running }

// IsPaused reports whether the timer is paused.
func (t *Timer) IsPaused() bool { return t.paused }

func (t *Timer) reset() {
	t.triggerCount = 0
	t.duration = 0
	t.before = t.clock.Monotonic()
}

// Start resets the accumulator and trigger count, captures the current
// monotonic time as baseline and arms the timer. A started timer begins a
// fresh accounting epoch regardless of prior state.
func (t *Timer) Start() {
	t.reset()
	t.running = true
	t.paused = false
}

// Stop disarms and fully resets the timer. A subsequent Start begins fresh.
func (t *Timer) Stop() {
	t.running = false
	t.paused = false
	t.reset()
}

// Pause suspends accumulation. The baseline is left stale until Resume.
func (t *Timer) Pause() {
	t.paused = true
}

// Resume continues accumulation. The baseline is re-captured so the paused
// interval does not count as elapsed; already-accumulated time is kept.
func (t *Timer) Resume() {
	t.paused = false
	t.before = t.clock.Monotonic()
}

// Update advances the timer by the monotonic time elapsed since the last
// call and fires the callback when the accumulated elapsed reaches the
// period. On firing, the accumulator keeps the overshoot past the period so
// the long-run firing rate tracks the nominal period.
//
// Update is a no-op unless the timer is running and not paused. The
// callback executes synchronously on the caller's execution context.
func (t *Timer) Update() {
	if !t.running || t.paused {
		return
	}

	now := t.clock.Monotonic()
	t.duration += now - t.before

	if t.duration >= t.period*int64(time.Millisecond) {
		var triggeredAt time.Time
		if t.wallClock {
			triggeredAt = t.clock.Now()
		}
		t.callback(t, triggeredAt)

		// Keep the overshoot; time spent inside the callback does not
		// count towards the next period.
		t.duration -= t.period * int64(time.Millisecond)
		t.triggerCount++
		t.before = t.clock.Monotonic()
	} else {
		t.before = now
	}
}

// String returns a human-readable summary of the timer state.
func (t *Timer) String() string {
	if !t.running {
		return fmt.Sprintf("%s not running p:%d", t.name, t.period)
	}
	state := "running"
	if t.paused {
		state = "running paused"
	}
	return fmt.Sprintf("%s %s p:%d d:%d", t.name, state, t.period, t.duration)
}
