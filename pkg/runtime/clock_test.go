package runtime

import (
	"testing"
	"time"
)

func TestRealClockMonotonicAdvances(t *testing.T) {
	clock := NewRealClock()

	first := clock.Monotonic()
	time.Sleep(5 * time.Millisecond)
	second := clock.Monotonic()

	if second <= first {
		t.Errorf("Monotonic() did not advance: first=%d second=%d", first, second)
	}
}

func TestRealClockNow(t *testing.T) {
	clock := NewRealClock()

	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if clock.Monotonic() != 0 {
		t.Errorf("initial Monotonic() = %d, want 0", clock.Monotonic())
	}

	clock.Advance(1500 * time.Millisecond)

	if got, want := clock.Monotonic(), int64(1500*time.Millisecond); got != want {
		t.Errorf("Monotonic() = %d, want %d", got, want)
	}
	if got, want := clock.Now(), start.Add(1500*time.Millisecond); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestFakeClockSetLeavesMonotonicAlone(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	clock.Advance(time.Second)

	newWall := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	clock.Set(newWall)

	if !clock.Now().Equal(newWall) {
		t.Errorf("Now() = %v, want %v", clock.Now(), newWall)
	}
	if got, want := clock.Monotonic(), int64(time.Second); got != want {
		t.Errorf("Monotonic() = %d, want %d", got, want)
	}
}
