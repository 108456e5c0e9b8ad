package runtime

// RunState represents the life-cycle state of an App.
//
// States only move forward through the fixed sequence; the ordinal value of
// the state active at the time of an unrecovered fault is used verbatim as
// the process exit code.
type RunState uint8

const (
	// StateNotStarted - app constructed but Run not yet called.
	StateNotStarted RunState = iota + 1

	// StateStarting - environment bootstrap in progress.
	StateStarting

	// StateInitialising - user Init hook in progress.
	StateInitialising

	// StateLooping - main loop running until Finish is observed.
	StateLooping

	// StateDeinitialising - user Deinit hook in progress.
	StateDeinitialising

	// StateShuttingDown - environment teardown; terminal.
	StateShuttingDown
)

// String returns the state name.
func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateStarting:
		return "STARTING"
	case StateInitialising:
		return "INITIALISING"
	case StateLooping:
		return "LOOPING"
	case StateDeinitialising:
		return "DEINITIALISING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// ExitOK is the success sentinel exit code.
const ExitOK = 0
