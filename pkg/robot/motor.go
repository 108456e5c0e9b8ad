package robot

import (
	"errors"
	"fmt"
)

// ErrThrottleRange is returned when a throttle outside [-1, 1] is
// handed directly to a motor. Drive clamps before calling, so user
// input never triggers it.
var ErrThrottleRange = errors.New("throttle out of range")

// Motor is a single wheel actuator. Throttle values are normalised:
// -1 is full reverse, 0 is stopped, 1 is full forward.
type Motor interface {
	// SetThrottle applies a new throttle value.
	SetThrottle(value float64) error

	// Throttle returns the last value applied.
	Throttle() float64
}

// SimMotor is a Motor that just remembers its throttle. It stands in
// for real hardware in tests and desktop runs.
type SimMotor struct {
	name     string
	throttle float64
}

// NewSimMotor creates a stopped simulated motor.
func NewSimMotor(name string) *SimMotor {
	return &SimMotor{name: name}
}

func (m *SimMotor) SetThrottle(value float64) error {
	if value < SpeedMin || value > SpeedMax {
		return fmt.Errorf("%w: %s got %g", ErrThrottleRange, m.name, value)
	}
	m.throttle = value
	return nil
}

func (m *SimMotor) Throttle() float64 {
	return m.throttle
}

func (m *SimMotor) String() string {
	return fmt.Sprintf("Motor{name: %s, throttle: %g}", m.name, m.throttle)
}
