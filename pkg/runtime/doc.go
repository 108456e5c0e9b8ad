// Package runtime implements the cooperative application run-time that every
// MinskyBot resident program is built on.
//
// The run-time is a single-threaded, non-preemptive execution loop with no
// scheduler beneath it. An App owns a fixed forward-only life-cycle
// (NOT_STARTED -> STARTING -> INITIALISING -> LOOPING -> DEINITIALISING ->
// SHUTTING_DOWN) and a collection of named software timers that are advanced
// once per loop iteration before the user loop hook runs.
//
// # Basic Usage
//
// Applications supply optional hooks at construction and call Run, which
// blocks for the whole process lifetime:
//
//	app := runtime.NewApp(runtime.Config{
//	    Hooks: runtime.Hooks{
//	        Init: func(a *runtime.App) error {
//	            t := a.AddTimer(5000, tick)
//	            t.Start()
//	            return nil
//	        },
//	        Loop: func(a *runtime.App) error { return poll(a) },
//	    },
//	})
//	os.Exit(app.Run())
//
// # Timers
//
// Timers are cooperative countdowns, not goroutines. A timer only advances
// when App.Run calls Update on it, and its callback executes in-line on the
// loop's execution context. A callback that blocks stalls every other timer
// and the loop itself for its duration.
//
// Firing is drift-corrected: when a timer fires, the accumulator keeps the
// overshoot past the period instead of resetting to zero, so the long-run
// average firing rate tracks the nominal period despite loop jitter.
//
// # Concurrency
//
// There is exactly one logical thread of control. No method on App or Timer
// is safe to call concurrently with Run; confine all calls to the owning
// goroutine. The only cancellation primitive is Finish, observed between
// loop iterations.
package runtime
