package runtime

import (
	"fmt"
	"log/slog"
)

// Environment is the bootstrap/teardown collaborator invoked at STARTING and
// SHUTTING_DOWN. Implementations configure peripherals and external session
// objects, with all fallible setup resolved to success or an error before
// returning control. The run-time never retries these calls.
type Environment interface {
	// Startup is invoked once when the app enters STARTING.
	Startup(a *App) error

	// Shutdown is invoked once when the app enters SHUTTING_DOWN.
	Shutdown(a *App) error
}

// NoopEnvironment is an Environment that does nothing. Used when no
// collaborator is supplied.
type NoopEnvironment struct{}

// Startup does nothing.
func (NoopEnvironment) Startup(*App) error { return nil }

// Shutdown does nothing.
func (NoopEnvironment) Shutdown(*App) error { return nil }

// Compile-time interface satisfaction check.
var _ Environment = NoopEnvironment{}

// Hooks are the optional user callback slots invoked from Run. A nil slot is
// equivalent to a no-op implementation.
type Hooks struct {
	// Init runs once in INITIALISING. Timers registered here become part
	// of the app's timer collection.
	Init func(a *App) error

	// Loop runs once per LOOPING iteration, after every registered timer
	// has been updated.
	Loop func(a *App) error

	// Deinit runs once in DEINITIALISING, and once more as a best-effort
	// cleanup pass after a fault.
	Deinit func(a *App) error
}

// Config configures an App.
type Config struct {
	// Environment is the bootstrap/teardown collaborator.
	// If nil, NoopEnvironment is used.
	Environment Environment

	// Hooks are the user callback slots.
	Hooks Hooks

	// Clock supplies monotonic and wall time. If nil, a RealClock is used.
	Clock Clock

	// Logger for operational output (optional).
	Logger *slog.Logger
}

// App drives the application life-cycle state machine and owns the timer
// collection. Construct one per process and call Run.
//
// App is not safe for concurrent use: all calls must come from the goroutine
// running Run (hooks and timer callbacks execute there).
type App struct {
	env    Environment
	hooks  Hooks
	clock  Clock
	logger *slog.Logger

	state    RunState
	finished bool
	exitCode int

	// Timer arena with name lookup. Iteration order is unspecified:
	// removal swaps the last entry into the vacated slot.
	timers      []*Timer
	index       map[string]int
	nameCounter int
}

// NewApp creates a new App.
func NewApp(config Config) *App {
	env := config.Environment
	if env == nil {
		env = NoopEnvironment{}
	}
	clock := config.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &App{
		env:      env,
		hooks:    config.Hooks,
		clock:    clock,
		logger:   logger,
		state:    StateNotStarted,
		exitCode: ExitOK,
		index:    make(map[string]int),
	}
}

// State returns the current life-cycle state.
func (a *App) State() RunState { return a.state }

// ExitCode returns the exit code: ExitOK, or the ordinal of the state that
// was active when a fault occurred.
func (a *App) ExitCode() int { return a.exitCode }

// Clock returns the app's clock.
func (a *App) Clock() Clock { return a.clock }

// Logger returns the app's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Finish requests a normal exit from the loop. It is idempotent and only
// meaningful while LOOPING; calls in any other state are ignored. The loop
// completes its current iteration before exiting.
func (a *App) Finish() {
	if a.state == StateLooping {
		a.finished = true
	}
}

// Run is the sole entry point. It drives the app through every life-cycle
// state exactly once (except LOOPING, which repeats until Finish) and blocks
// the calling goroutine for the whole process lifetime.
//
// Run returns the exit code: ExitOK on a clean pass, otherwise the ordinal
// of the state active when the fault occurred. When a fault occurs before
// SHUTTING_DOWN, the Deinit hook is invoked exactly once more as a
// best-effort cleanup pass; a second fault during that pass is not caught.
func (a *App) Run() int {
	a.finished = false
	a.exitCode = ExitOK

	if err := a.lifecycle(); err != nil {
		a.exitCode = int(a.state)
		a.logger.Error("run aborted",
			"state", a.state, "exit_code", a.exitCode, "err", err)

		if a.state < StateShuttingDown {
			// Best-effort cleanup pass, deliberately unprotected.
			if a.hooks.Deinit != nil {
				if derr := a.hooks.Deinit(a); derr != nil {
					a.logger.Error("cleanup pass failed", "err", derr)
				}
			}
		}
		return a.exitCode
	}

	a.logger.Debug("run complete", "exit_code", a.exitCode)
	return a.exitCode
}

// lifecycle walks the state machine, returning the first fault.
func (a *App) lifecycle() error {
	a.setState(StateStarting)
	if err := protect(func() error { return a.env.Startup(a) }); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	a.setState(StateInitialising)
	if err := protect(func() error { return a.runHook(a.hooks.Init) }); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	a.setState(StateLooping)
	for !a.finished {
		if err := protect(a.iterate); err != nil {
			return fmt.Errorf("loop: %w", err)
		}
	}

	a.setState(StateDeinitialising)
	if err := protect(func() error { return a.runHook(a.hooks.Deinit) }); err != nil {
		return fmt.Errorf("deinit: %w", err)
	}

	a.setState(StateShuttingDown)
	if err := protect(func() error { return a.env.Shutdown(a) }); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// iterate performs one LOOPING iteration: advance every registered timer,
// then run the user loop hook.
func (a *App) iterate() error {
	a.UpdateTimers()
	return a.runHook(a.hooks.Loop)
}

// runHook invokes a hook slot, treating a nil slot as a no-op.
func (a *App) runHook(hook func(*App) error) error {
	if hook == nil {
		return nil
	}
	return hook(a)
}

// protect runs fn, converting a panic into an error so the fault handler
// can capture the life-cycle phase.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (a *App) setState(s RunState) {
	a.logger.Debug("state change", "from", a.state, "to", s)
	a.state = s
}
