package timer

import "time"

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop cancels the timer. It returns false if the timer already fired
	// or was stopped.
	Stop() bool
}

// Scheduler arms one-shot timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real schedules callbacks on the runtime timer wheel.
type Real struct{}

// AfterFunc calls f on its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Now returns the current wall clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// Now returns s's notion of the current time when it has one, and the wall
// clock otherwise.
func Now(s Scheduler) time.Time {
	if c, ok := s.(interface{ Now() time.Time }); ok {
		return c.Now()
	}
	return time.Now()
}

// Default returns the scheduler used when none is configured.
func Default() Scheduler {
	return Real{}
}
