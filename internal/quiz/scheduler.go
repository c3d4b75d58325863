package quiz

import "time"

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Scheduler runs a callback after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// ClockScheduler schedules callbacks on the wall clock
type ClockScheduler struct{}

// AfterFunc wraps time.AfterFunc
func (ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
