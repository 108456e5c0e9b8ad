// Package robot models the drive train of a two-wheeled differential
// robot.
//
// The central type is Drive, which owns a left and a right Motor and
// translates high-level motion requests (set speed, nudge, rotate,
// halt) into per-wheel throttle values. Throttles are normalised to
// the range [-1, 1]; requests below the dead-zone threshold are
// treated as zero so that controller stick noise does not make the
// motors whine.
//
// Motor is a small interface so that the same Drive logic runs against
// real motor controllers and against the in-memory SimMotor used in
// tests and on development machines without hardware attached.
package robot
