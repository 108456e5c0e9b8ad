package runtime

import (
	"testing"
	"time"
)

func newTestApp(clock Clock) *App {
	return NewApp(Config{Clock: clock})
}

func TestAddTimerInitialState(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	app := newTestApp(clock)

	timer := app.AddTimerWithOptions(1000, func(*Timer, time.Time) {}, TimerOptions{Name: "tick"})
	if timer == nil {
		t.Fatal("AddTimerWithOptions returned nil")
	}

	if timer.Name() != "tick" {
		t.Errorf("Name() = %q, want %q", timer.Name(), "tick")
	}
	if timer.Period() != 1000 {
		t.Errorf("Period() = %d, want 1000", timer.Period())
	}
	if timer.IsRunning() {
		t.Error("IsRunning() = true, want false")
	}
	if timer.IsPaused() {
		t.Error("IsPaused() = true, want false")
	}
	if timer.TriggerCount() != 0 {
		t.Errorf("TriggerCount() = %d, want 0", timer.TriggerCount())
	}
}

func TestAddTimerRejectsInvalid(t *testing.T) {
	app := newTestApp(NewFakeClock(time.Now()))

	if timer := app.AddTimer(0, func(*Timer, time.Time) {}); timer != nil {
		t.Error("AddTimer(0, cb) = timer, want nil")
	}
	if timer := app.AddTimer(-5, func(*Timer, time.Time) {}); timer != nil {
		t.Error("AddTimer(-5, cb) = timer, want nil")
	}
	if timer := app.AddTimer(100, nil); timer != nil {
		t.Error("AddTimer(100, nil) = timer, want nil")
	}
}

func TestAddTimerDuplicateNameRejected(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	first := app.AddTimerWithOptions(500, func(*Timer, time.Time) {}, TimerOptions{Name: "tick"})
	if first == nil {
		t.Fatal("first registration failed")
	}
	first.Start()
	clock.Advance(200 * time.Millisecond)
	first.Update()

	second := app.AddTimerWithOptions(900, func(*Timer, time.Time) {}, TimerOptions{Name: "tick"})
	if second != nil {
		t.Fatal("duplicate registration succeeded, want nil")
	}

	// The original timer keeps its identity and state.
	got := app.GetTimer("tick")
	if got != first {
		t.Error("GetTimer returned a different timer after rejected registration")
	}
	if got.Period() != 500 {
		t.Errorf("Period() = %d, want 500", got.Period())
	}
	if !got.IsRunning() {
		t.Error("original timer no longer running after rejected registration")
	}
	if got.duration != int64(200*time.Millisecond) {
		t.Errorf("accumulator = %d, want %d", got.duration, int64(200*time.Millisecond))
	}
}

func TestAddTimerAutoNames(t *testing.T) {
	app := newTestApp(NewFakeClock(time.Now()))

	a := app.AddTimer(100, func(*Timer, time.Time) {})
	b := app.AddTimer(100, func(*Timer, time.Time) {})
	if a.Name() != "Timer-0" || b.Name() != "Timer-1" {
		t.Errorf("auto names = %q, %q, want Timer-0, Timer-1", a.Name(), b.Name())
	}

	// An explicit name squatting on the generated sequence is skipped over.
	app2 := newTestApp(NewFakeClock(time.Now()))
	app2.AddTimerWithOptions(100, func(*Timer, time.Time) {}, TimerOptions{Name: "Timer-0"})
	c := app2.AddTimer(100, func(*Timer, time.Time) {})
	if c == nil {
		t.Fatal("auto-named registration failed")
	}
	if c.Name() == "Timer-0" {
		t.Errorf("auto name collided with explicit name %q", c.Name())
	}
}

func TestTimerFiresAfterPeriod(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	fires := 0
	timer := app.AddTimer(1000, func(*Timer, time.Time) { fires++ })
	timer.Start()

	clock.Advance(999 * time.Millisecond)
	timer.Update()
	if fires != 0 {
		t.Fatalf("fired %d times before period elapsed", fires)
	}

	clock.Advance(1 * time.Millisecond)
	timer.Update()
	if fires != 1 {
		t.Fatalf("fires = %d after period elapsed, want 1", fires)
	}
	if timer.TriggerCount() != 1 {
		t.Errorf("TriggerCount() = %d, want 1", timer.TriggerCount())
	}
}

// Period 1000 ms, four successive 300 ms advances: exactly one fire once the
// cumulative elapsed crosses the period, and the post-fire accumulator holds
// the overshoot (1200 ms - 1000 ms).
func TestTimerOvershootRetained(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	fires := 0
	timer := app.AddTimer(1000, func(*Timer, time.Time) { fires++ })
	timer.Start()

	for i := 0; i < 4; i++ {
		clock.Advance(300 * time.Millisecond)
		timer.Update()
	}

	if fires != 1 {
		t.Fatalf("fires = %d, want 1", fires)
	}
	if got, want := timer.duration, int64(200*time.Millisecond); got != want {
		t.Errorf("post-fire accumulator = %d, want %d", got, want)
	}
}

// Long-run drift correction: for every chunking of the advance, the fire
// count is exactly floor(total_elapsed / period).
func TestTimerDriftCorrection(t *testing.T) {
	const periodMS = 10

	chunks := []time.Duration{
		1 * time.Millisecond,
		3 * time.Millisecond,
		7 * time.Millisecond,
		9 * time.Millisecond,
		10 * time.Millisecond,
	}

	for _, chunk := range chunks {
		t.Run(chunk.String(), func(t *testing.T) {
			clock := NewFakeClock(time.Now())
			app := newTestApp(clock)

			fires := 0
			timer := app.AddTimer(periodMS, func(*Timer, time.Time) { fires++ })
			timer.Start()

			const iterations = 5000
			for i := 0; i < iterations; i++ {
				clock.Advance(chunk)
				timer.Update()
			}

			total := int64(chunk) * iterations
			want := int(total / int64(periodMS*time.Millisecond))
			if fires != want {
				t.Errorf("fires = %d over %v total, want %d", fires, time.Duration(total), want)
			}
		})
	}
}

// An Update that covers more than one period still fires exactly once;
// the surplus stays in the accumulator. Catch-up happens one fire per
// Update, never in bursts.
func TestTimerUpdateFiresOncePerCall(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	fires := 0
	timer := app.AddTimer(10, func(*Timer, time.Time) { fires++ })
	timer.Start()

	for i := 1; i <= 4; i++ {
		clock.Advance(25 * time.Millisecond)
		timer.Update()

		if fires != i {
			t.Fatalf("after update %d: fires = %d, want %d", i, fires, i)
		}
		// 25 ms in, 10 ms consumed per fire: the backlog grows 15 ms
		// per update.
		if got, want := timer.duration, int64(i)*int64(15*time.Millisecond); got != want {
			t.Errorf("after update %d: accumulator = %d, want %d", i, got, want)
		}
	}
}

func TestTimerPauseStopsAccumulation(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	fires := 0
	timer := app.AddTimer(1000, func(*Timer, time.Time) { fires++ })
	timer.Start()

	clock.Advance(500 * time.Millisecond)
	timer.Update()
	timer.Pause()

	// Time passing while paused is not counted.
	clock.Advance(10 * time.Second)
	timer.Update()
	if fires != 0 {
		t.Fatalf("fired while paused")
	}
	if got, want := timer.duration, int64(500*time.Millisecond); got != want {
		t.Errorf("accumulator grew while paused: %d, want %d", got, want)
	}

	timer.Resume()
	clock.Advance(500 * time.Millisecond)
	timer.Update()
	if fires != 1 {
		t.Errorf("fires = %d after resume completes the period, want 1", fires)
	}
	if timer.TriggerCount() != 1 {
		t.Errorf("TriggerCount() = %d after pause/resume, want 1", timer.TriggerCount())
	}
}

// Pause immediately followed by Resume with no wall time in between must not
// grow or shrink the accumulator.
func TestTimerPauseResumeZeroElapsed(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	timer := app.AddTimer(1000, func(*Timer, time.Time) {})
	timer.Start()

	clock.Advance(400 * time.Millisecond)
	timer.Update()

	before := timer.duration
	timer.Pause()
	timer.Resume()
	timer.Update()

	if timer.duration != before {
		t.Errorf("accumulator changed across pause/resume: %d -> %d", before, timer.duration)
	}
}

func TestTimerStopResets(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	fires := 0
	timer := app.AddTimer(100, func(*Timer, time.Time) { fires++ })
	timer.Start()

	for i := 0; i < 5; i++ {
		clock.Advance(100 * time.Millisecond)
		timer.Update()
	}
	if timer.TriggerCount() != 5 {
		t.Fatalf("TriggerCount() = %d, want 5", timer.TriggerCount())
	}

	timer.Stop()
	if timer.TriggerCount() != 0 {
		t.Errorf("TriggerCount() = %d after Stop, want 0", timer.TriggerCount())
	}
	if timer.duration != 0 {
		t.Errorf("accumulator = %d after Stop, want 0", timer.duration)
	}

	// A stopped timer ignores updates.
	clock.Advance(time.Second)
	timer.Update()
	if fires != 5 {
		t.Errorf("stopped timer fired")
	}

	// A subsequent Start begins a fresh, independent accounting epoch.
	timer.Start()
	clock.Advance(99 * time.Millisecond)
	timer.Update()
	if fires != 5 {
		t.Errorf("timer fired %d times before fresh period elapsed, want 5", fires)
	}
	clock.Advance(1 * time.Millisecond)
	timer.Update()
	if fires != 6 {
		t.Errorf("fires = %d after fresh period, want 6", fires)
	}
}

func TestTimerWallClockSnapshot(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	app := newTestApp(clock)

	var plain, snapped time.Time
	withClock := app.AddTimerWithOptions(100, func(_ *Timer, at time.Time) { snapped = at },
		TimerOptions{Name: "wall", WallClock: true})
	without := app.AddTimerWithOptions(100, func(_ *Timer, at time.Time) { plain = at },
		TimerOptions{Name: "bare"})

	withClock.Start()
	without.Start()
	clock.Advance(100 * time.Millisecond)
	withClock.Update()
	without.Update()

	if want := start.Add(100 * time.Millisecond); !snapped.Equal(want) {
		t.Errorf("wall-clock callback got %v, want %v", snapped, want)
	}
	if !plain.IsZero() {
		t.Errorf("bare callback got %v, want zero time", plain)
	}
}

func TestTimerCallbackSourceIdentity(t *testing.T) {
	clock := NewFakeClock(time.Now())
	app := newTestApp(clock)

	var source *Timer
	timer := app.AddTimerWithOptions(50, func(src *Timer, _ time.Time) { source = src },
		TimerOptions{Name: "ident"})
	timer.Start()

	clock.Advance(50 * time.Millisecond)
	timer.Update()

	if source != timer {
		t.Errorf("callback source = %v, want the firing timer", source)
	}
}
