package runtime

import "fmt"

// TimerOptions carries the optional parameters for timer registration.
type TimerOptions struct {
	// Name keys the timer in the app's collection. Auto-generated when
	// empty.
	Name string

	// WallClock makes the timer snapshot the wall clock on each fire and
	// hand it to the callback. Without it the callback receives the zero
	// time.
	WallClock bool
}

// AddTimer registers a new timer with an auto-generated name. The timer is
// created stopped with a zero accumulator; call Start to arm it.
// Returns nil if period is not strictly positive or callback is nil.
func (a *App) AddTimer(period int64, callback TimerCallback) *Timer {
	return a.AddTimerWithOptions(period, callback, TimerOptions{})
}

// AddTimerWithOptions registers a new timer. Registration fails by returning
// nil when the requested name already exists; the existing timer is left
// untouched.
func (a *App) AddTimerWithOptions(period int64, callback TimerCallback, opts TimerOptions) *Timer {
	if period <= 0 || callback == nil {
		return nil
	}

	name := opts.Name
	if name == "" {
		for {
			name = fmt.Sprintf("Timer-%d", a.nameCounter)
			a.nameCounter++
			if _, taken := a.index[name]; !taken {
				break
			}
		}
	} else if _, taken := a.index[name]; taken {
		return nil
	}

	t := &Timer{
		name:      name,
		period:    period,
		callback:  callback,
		clock:     a.clock,
		wallClock: opts.WallClock,
	}
	t.before = a.clock.Monotonic()

	a.index[name] = len(a.timers)
	a.timers = append(a.timers, t)
	return t
}

// RemoveTimer removes the named timer. Unknown names are ignored.
func (a *App) RemoveTimer(name string) {
	i, ok := a.index[name]
	if !ok {
		return
	}
	last := len(a.timers) - 1
	a.timers[i] = a.timers[last]
	a.index[a.timers[i].name] = i
	a.timers = a.timers[:last]
	delete(a.index, name)
}

// RemoveTimers removes each named timer in turn. No atomicity across the
// set: names removed before an unknown name stay removed.
func (a *App) RemoveTimers(names []string) {
	for _, name := range names {
		a.RemoveTimer(name)
	}
}

// RemoveAllTimers empties the timer collection.
func (a *App) RemoveAllTimers() {
	a.timers = a.timers[:0]
	clear(a.index)
}

// HasTimer reports whether a timer with the given name is registered.
func (a *App) HasTimer(name string) bool {
	_, ok := a.index[name]
	return ok
}

// GetTimer returns the named timer, or nil if not registered.
func (a *App) GetTimer(name string) *Timer {
	if i, ok := a.index[name]; ok {
		return a.timers[i]
	}
	return nil
}

// TimerCount returns the number of registered timers.
func (a *App) TimerCount() int { return len(a.timers) }

// UpdateTimers advances every registered timer once. Run calls this at the
// top of each loop iteration; iteration order is unspecified and timers must
// not rely on relative firing order within the same tick.
func (a *App) UpdateTimers() {
	for i := 0; i < len(a.timers); i++ {
		a.timers[i].Update()
	}
}

// StartTimer starts the named timer. Unknown names are ignored.
func (a *App) StartTimer(name string) {
	if t := a.GetTimer(name); t != nil {
		t.Start()
	}
}

// StopTimer stops the named timer. Unknown names are ignored.
func (a *App) StopTimer(name string) {
	if t := a.GetTimer(name); t != nil {
		t.Stop()
	}
}

// PauseTimer pauses the named timer. Unknown names are ignored.
func (a *App) PauseTimer(name string) {
	if t := a.GetTimer(name); t != nil {
		t.Pause()
	}
}

// ResumeTimer resumes the named timer. Unknown names are ignored.
func (a *App) ResumeTimer(name string) {
	if t := a.GetTimer(name); t != nil {
		t.Resume()
	}
}

// StartTimers starts each named timer in turn.
func (a *App) StartTimers(names []string) {
	for _, name := range names {
		a.StartTimer(name)
	}
}

// StopTimers stops each named timer in turn.
func (a *App) StopTimers(names []string) {
	for _, name := range names {
		a.StopTimer(name)
	}
}

// PauseTimers pauses each named timer in turn.
func (a *App) PauseTimers(names []string) {
	for _, name := range names {
		a.PauseTimer(name)
	}
}

// ResumeTimers resumes each named timer in turn.
func (a *App) ResumeTimers(names []string) {
	for _, name := range names {
		a.ResumeTimer(name)
	}
}

// StartAllTimers starts every registered timer.
func (a *App) StartAllTimers() {
	for _, t := range a.timers {
		t.Start()
	}
}

// StopAllTimers stops every registered timer.
func (a *App) StopAllTimers() {
	for _, t := range a.timers {
		t.Stop()
	}
}

// PauseAllTimers pauses every registered timer.
func (a *App) PauseAllTimers() {
	for _, t := range a.timers {
		t.Pause()
	}
}

// ResumeAllTimers resumes every registered timer.
func (a *App) ResumeAllTimers() {
	for _, t := range a.timers {
		t.Resume()
	}
}
