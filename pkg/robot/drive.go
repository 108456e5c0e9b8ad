package robot

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

// Throttle tuning constants shared by the robot and the controller.
const (
	// SpeedMin and SpeedMax bound every throttle value.
	SpeedMin = -1.0
	SpeedMax = 1.0

	// SpeedDeadzone is the magnitude below which a requested speed is
	// treated as zero.
	SpeedDeadzone = 0.2

	// SpeedDelta is the default step for incremental speed changes.
	SpeedDelta = 0.05
)

// DriveConfig configures a Drive.
type DriveConfig struct {
	// Left and Right are the wheel motors. Both are required.
	Left  Motor
	Right Motor

	// Logger is optional. Defaults to a discard logger.
	Logger *slog.Logger
}

// Drive coordinates the two wheel motors of a differential drive
// robot. It is not safe for concurrent use; like the rest of the
// runtime it expects to be driven from a single loop goroutine.
type Drive struct {
	left   Motor
	right  Motor
	logger *slog.Logger

	// frames counts loop iterations for telemetry reports. The
	// application advances it once per loop pass via Tick.
	frames uint64
}

// NewDrive creates a Drive from the given configuration.
func NewDrive(config DriveConfig) (*Drive, error) {
	if config.Left == nil || config.Right == nil {
		return nil, fmt.Errorf("drive requires both motors")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Drive{
		left:   config.Left,
		right:  config.Right,
		logger: logger,
	}, nil
}

// Clamp bounds a throttle value to [SpeedMin, SpeedMax] and flattens
// values inside the dead zone to zero.
func Clamp(value float64) float64 {
	if math.Abs(value) < SpeedDeadzone {
		return 0
	}
	if value < SpeedMin {
		return SpeedMin
	}
	if value > SpeedMax {
		return SpeedMax
	}
	return value
}

// SetSpeed applies the same throttle to both wheels.
func (d *Drive) SetSpeed(value float64) error {
	v := Clamp(value)
	d.logger.Debug("set speed", "requested", value, "applied", v)
	if err := d.left.SetThrottle(v); err != nil {
		return err
	}
	return d.right.SetThrottle(v)
}

// IncrementSpeed raises both throttles by delta, clamping the result.
// A delta of 0 uses SpeedDelta.
func (d *Drive) IncrementSpeed(delta float64) error {
	if delta == 0 {
		delta = SpeedDelta
	}
	return d.adjust(delta)
}

// DecrementSpeed lowers both throttles by delta, clamping the result.
// A delta of 0 uses SpeedDelta.
func (d *Drive) DecrementSpeed(delta float64) error {
	if delta == 0 {
		delta = SpeedDelta
	}
	return d.adjust(-delta)
}

func (d *Drive) adjust(delta float64) error {
	l := clampNoDeadzone(d.left.Throttle() + delta)
	r := clampNoDeadzone(d.right.Throttle() + delta)
	d.logger.Debug("adjust speed", "delta", delta, "left", l, "right", r)
	if err := d.left.SetThrottle(l); err != nil {
		return err
	}
	return d.right.SetThrottle(r)
}

// clampNoDeadzone bounds without flattening, so repeated small steps
// can walk a throttle through the dead zone.
func clampNoDeadzone(value float64) float64 {
	if value < SpeedMin {
		return SpeedMin
	}
	if value > SpeedMax {
		return SpeedMax
	}
	return value
}

// HaltSpeed stops both wheels.
func (d *Drive) HaltSpeed() error {
	d.logger.Debug("halt")
	if err := d.left.SetThrottle(0); err != nil {
		return err
	}
	return d.right.SetThrottle(0)
}

// StraightOn equalises the wheels so the robot drives straight. The
// wheel that is currently moving wins; if both move, the right wheel
// is matched to the left.
func (d *Drive) StraightOn() error {
	l, r := d.left.Throttle(), d.right.Throttle()
	target := l
	if l == 0 {
		target = r
	}
	d.logger.Debug("straight on", "target", target)
	if err := d.left.SetThrottle(target); err != nil {
		return err
	}
	return d.right.SetThrottle(target)
}

// RotateLeft turns left by stopping the left wheel. The right wheel
// picks up the previous left throttle if it was idle.
func (d *Drive) RotateLeft() error {
	return d.rotate(d.left, d.right)
}

// RotateRight turns right by stopping the right wheel. The left wheel
// picks up the previous right throttle if it was idle.
func (d *Drive) RotateRight() error {
	return d.rotate(d.right, d.left)
}

func (d *Drive) rotate(inner, outer Motor) error {
	current := inner.Throttle()
	if err := inner.SetThrottle(0); err != nil {
		return err
	}
	if outer.Throttle() == 0 && current != 0 {
		return outer.SetThrottle(current)
	}
	return nil
}

// FastRotateLeft spins in place to the left, reversing the left wheel
// against the right.
func (d *Drive) FastRotateLeft() error {
	return d.fastRotate(d.left, d.right)
}

// FastRotateRight spins in place to the right, reversing the right
// wheel against the left.
func (d *Drive) FastRotateRight() error {
	return d.fastRotate(d.right, d.left)
}

func (d *Drive) fastRotate(inner, outer Motor) error {
	speed := math.Max(math.Abs(inner.Throttle()), math.Abs(outer.Throttle()))
	if speed == 0 {
		speed = SpeedDeadzone
	}
	if err := inner.SetThrottle(-speed); err != nil {
		return err
	}
	return outer.SetThrottle(speed)
}

// Throttles returns the current left and right wheel throttles.
func (d *Drive) Throttles() (left, right float64) {
	return d.left.Throttle(), d.right.Throttle()
}

// Tick advances the loop frame counter.
func (d *Drive) Tick() {
	d.frames++
}

// Frames returns the number of loop passes since start.
func (d *Drive) Frames() uint64 {
	return d.frames
}

// Telemetry snapshots the drive state for publication.
func (d *Drive) Telemetry() wire.Telemetry {
	return wire.Telemetry{
		Frames:    d.frames,
		ThrottleL: d.left.Throttle(),
		ThrottleR: d.right.Throttle(),
	}
}

func (d *Drive) String() string {
	return fmt.Sprintf("Drive{left: %g, right: %g, frames: %d}",
		d.left.Throttle(), d.right.Throttle(), d.frames)
}
