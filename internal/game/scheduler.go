package game

import "time"

// Scheduler posts one-shot tasks to run after a delay. The engine uses
// it for the reveal-then-advance transitions that follow every graded
// answer. Scheduled tasks fire exactly once and cannot be cancelled;
// an advance targeting a closed session is a no-op.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// TimerScheduler runs tasks on real timers.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
