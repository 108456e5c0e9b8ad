package robot

import (
	"errors"
	"testing"
)

func newTestDrive(t *testing.T) *Drive {
	t.Helper()
	d, err := NewDrive(DriveConfig{
		Left:  NewSimMotor("left"),
		Right: NewSimMotor("right"),
	})
	if err != nil {
		t.Fatalf("NewDrive() error = %v", err)
	}
	return d
}

func TestNewDriveRequiresMotors(t *testing.T) {
	if _, err := NewDrive(DriveConfig{Left: NewSimMotor("left")}); err == nil {
		t.Error("NewDrive() without right motor should fail")
	}
	if _, err := NewDrive(DriveConfig{Right: NewSimMotor("right")}); err == nil {
		t.Error("NewDrive() without left motor should fail")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"zero", 0, 0},
		{"inside deadzone positive", 0.19, 0},
		{"inside deadzone negative", -0.19, 0},
		{"at deadzone", 0.2, 0.2},
		{"normal", 0.5, 0.5},
		{"above max", 1.5, 1},
		{"below min", -2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.value); got != tt.want {
				t.Errorf("Clamp(%g) = %g, want %g", tt.value, got, tt.want)
			}
		})
	}
}

func TestSetSpeed(t *testing.T) {
	d := newTestDrive(t)

	if err := d.SetSpeed(0.5); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	l, r := d.Throttles()
	if l != 0.5 || r != 0.5 {
		t.Errorf("Throttles() = %g, %g, want 0.5, 0.5", l, r)
	}

	// Requests inside the dead zone stop the robot.
	if err := d.SetSpeed(0.1); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	l, r = d.Throttles()
	if l != 0 || r != 0 {
		t.Errorf("Throttles() after deadzone request = %g, %g, want 0, 0", l, r)
	}
}

func TestIncrementDecrement(t *testing.T) {
	d := newTestDrive(t)

	if err := d.SetSpeed(0.5); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := d.IncrementSpeed(0); err != nil {
		t.Fatalf("IncrementSpeed() error = %v", err)
	}
	l, _ := d.Throttles()
	if l != 0.55 {
		t.Errorf("left throttle = %g, want 0.55", l)
	}

	if err := d.DecrementSpeed(0.1); err != nil {
		t.Fatalf("DecrementSpeed() error = %v", err)
	}
	l, _ = d.Throttles()
	if !almostEqual(l, 0.45) {
		t.Errorf("left throttle = %g, want 0.45", l)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}

func TestIncrementClampsAtMax(t *testing.T) {
	d := newTestDrive(t)
	if err := d.SetSpeed(1); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := d.IncrementSpeed(0.5); err != nil {
		t.Fatalf("IncrementSpeed() error = %v", err)
	}
	l, r := d.Throttles()
	if l != 1 || r != 1 {
		t.Errorf("Throttles() = %g, %g, want 1, 1", l, r)
	}
}

func TestIncrementWalksThroughDeadzone(t *testing.T) {
	d := newTestDrive(t)
	// Small steps from zero must not be flattened, otherwise the
	// robot could never accelerate from rest incrementally.
	for i := 0; i < 6; i++ {
		if err := d.IncrementSpeed(0); err != nil {
			t.Fatalf("IncrementSpeed() error = %v", err)
		}
	}
	l, _ := d.Throttles()
	if !almostEqual(l, 0.3) {
		t.Errorf("left throttle = %g, want 0.3", l)
	}
}

func TestHaltSpeed(t *testing.T) {
	d := newTestDrive(t)
	if err := d.SetSpeed(0.8); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := d.HaltSpeed(); err != nil {
		t.Fatalf("HaltSpeed() error = %v", err)
	}
	l, r := d.Throttles()
	if l != 0 || r != 0 {
		t.Errorf("Throttles() = %g, %g, want 0, 0", l, r)
	}
}

func TestStraightOn(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		want        float64
	}{
		{"left moving", 0.5, 0, 0.5},
		{"right moving", 0, 0.4, 0.4},
		{"both moving left wins", 0.6, 0.3, 0.6},
		{"both stopped", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDrive(t)
			if err := d.left.SetThrottle(tt.left); err != nil {
				t.Fatal(err)
			}
			if err := d.right.SetThrottle(tt.right); err != nil {
				t.Fatal(err)
			}
			if err := d.StraightOn(); err != nil {
				t.Fatalf("StraightOn() error = %v", err)
			}
			l, r := d.Throttles()
			if l != tt.want || r != tt.want {
				t.Errorf("Throttles() = %g, %g, want %g, %g", l, r, tt.want, tt.want)
			}
		})
	}
}

func TestRotateLeft(t *testing.T) {
	d := newTestDrive(t)
	if err := d.SetSpeed(0.5); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := d.RotateLeft(); err != nil {
		t.Fatalf("RotateLeft() error = %v", err)
	}
	l, r := d.Throttles()
	if l != 0 {
		t.Errorf("left throttle = %g, want 0", l)
	}
	if r != 0.5 {
		t.Errorf("right throttle = %g, want 0.5", r)
	}
}

func TestRotateLeftFromRest(t *testing.T) {
	d := newTestDrive(t)
	// Rotating a stopped robot picks up no speed on its own.
	if err := d.RotateLeft(); err != nil {
		t.Fatalf("RotateLeft() error = %v", err)
	}
	l, r := d.Throttles()
	if l != 0 || r != 0 {
		t.Errorf("Throttles() = %g, %g, want 0, 0", l, r)
	}
}

func TestRotateRight(t *testing.T) {
	d := newTestDrive(t)
	if err := d.SetSpeed(0.4); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := d.RotateRight(); err != nil {
		t.Fatalf("RotateRight() error = %v", err)
	}
	l, r := d.Throttles()
	if l != 0.4 {
		t.Errorf("left throttle = %g, want 0.4", l)
	}
	if r != 0 {
		t.Errorf("right throttle = %g, want 0", r)
	}
}

func TestFastRotate(t *testing.T) {
	d := newTestDrive(t)
	if err := d.SetSpeed(0.5); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if err := d.FastRotateLeft(); err != nil {
		t.Fatalf("FastRotateLeft() error = %v", err)
	}
	l, r := d.Throttles()
	if l != -0.5 || r != 0.5 {
		t.Errorf("Throttles() = %g, %g, want -0.5, 0.5", l, r)
	}

	if err := d.FastRotateRight(); err != nil {
		t.Fatalf("FastRotateRight() error = %v", err)
	}
	l, r = d.Throttles()
	if l != 0.5 || r != -0.5 {
		t.Errorf("Throttles() = %g, %g, want 0.5, -0.5", l, r)
	}
}

func TestFastRotateFromRest(t *testing.T) {
	d := newTestDrive(t)
	// Spinning from rest uses the minimum effective throttle.
	if err := d.FastRotateLeft(); err != nil {
		t.Fatalf("FastRotateLeft() error = %v", err)
	}
	l, r := d.Throttles()
	if l != -SpeedDeadzone || r != SpeedDeadzone {
		t.Errorf("Throttles() = %g, %g, want %g, %g", l, r, -SpeedDeadzone, SpeedDeadzone)
	}
}

func TestTelemetry(t *testing.T) {
	d := newTestDrive(t)
	if err := d.SetSpeed(0.3); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	d.Tick()
	d.Tick()

	tm := d.Telemetry()
	if tm.Frames != 2 {
		t.Errorf("Frames = %d, want 2", tm.Frames)
	}
	if tm.ThrottleL != 0.3 || tm.ThrottleR != 0.3 {
		t.Errorf("throttles = %g, %g, want 0.3, 0.3", tm.ThrottleL, tm.ThrottleR)
	}
}

func TestSimMotorRange(t *testing.T) {
	m := NewSimMotor("left")
	if err := m.SetThrottle(1.5); !errors.Is(err, ErrThrottleRange) {
		t.Errorf("SetThrottle(1.5) error = %v, want ErrThrottleRange", err)
	}
	if got := m.Throttle(); got != 0 {
		t.Errorf("Throttle() after rejected set = %g, want 0", got)
	}
}
