package game

import (
	"time"
)

// TimerKey names the purpose of a session timer. A session holds at most one
// pending timer per key.
type TimerKey string

// Timer purposes.
const (
	TimerAutoStart         TimerKey = "autoStart"
	TimerRound             TimerKey = "round"
	TimerSignupsRefresh    TimerKey = "signupRefresh"
	TimerHostFirstWarning  TimerKey = "hostFirstWarning"
	TimerHostSecondWarning TimerKey = "hostSecondWarning"
	TimerHostGame          TimerKey = "hostGame"
)

type timerEntry struct {
	stopper Stopper
	due     time.Time
}

// Timers is the per-session timer table.
type Timers struct {
	clock   Clock
	entries map[TimerKey]*timerEntry
}

// NewTimers creates an empty timer table driven by clock.
func NewTimers(clock Clock) *Timers {
	return &Timers{
		clock:   clock,
		entries: make(map[TimerKey]*timerEntry),
	}
}

// Set schedules fn after d under key, replacing any pending timer with the same key.
func (t *Timers) Set(key TimerKey, d time.Duration, fn func()) {
	t.Cancel(key)
	if d < 0 {
		d = 0
	}

	e := &timerEntry{due: t.clock.Now().Add(d)}
	t.entries[key] = e
	e.stopper = t.clock.AfterFunc(d, func() {
		// A replaced or cancelled entry must not run even if its callback was
		// already queued behind the session lock.
		if t.entries[key] != e {
			return
		}
		delete(t.entries, key)
		fn()
	})
}

// Cancel stops the timer under key. It reports whether a timer was pending.
func (t *Timers) Cancel(key TimerKey) bool {
	e, ok := t.entries[key]
	if !ok {
		return false
	}
	delete(t.entries, key)
	if e.stopper != nil {
		e.stopper.Stop()
	}
	return true
}

// Pending reports whether a timer is scheduled under key.
func (t *Timers) Pending(key TimerKey) bool {
	_, ok := t.entries[key]
	return ok
}

// Remaining returns the time left on the timer under key, or 0.
func (t *Timers) Remaining(key TimerKey) time.Duration {
	e, ok := t.entries[key]
	if !ok {
		return 0
	}
	if left := e.due.Sub(t.clock.Now()); left > 0 {
		return left
	}
	return 0
}

// ClearAll cancels every pending timer and returns how many were cancelled.
func (t *Timers) ClearAll() int {
	n := 0
	for key := range t.entries {
		if t.Cancel(key) {
			n++
		}
	}
	return n
}

// Len returns the number of pending timers.
func (t *Timers) Len() int {
	return len(t.entries)
}

type systemClock struct {
	run func(fn func())
}

// NewSystemClock returns a wall clock whose callbacks are executed through run,
// which is expected to serialize them with the session's other mutations.
// A nil run executes callbacks directly.
func NewSystemClock(run func(fn func())) Clock {
	if run == nil {
		run = func(fn func()) { fn() }
	}
	return &systemClock{run: run}
}

func (c *systemClock) Now() time.Time {
	return time.Now()
}

func (c *systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, func() { c.run(f) })
}
