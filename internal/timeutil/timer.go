package timeutil

import (
	"sync"
	"time"
)

// TimerState represents the current state of a [Timer].
type TimerState string

const (
	// TimerStateRunning indicates the timer is currently running.
	TimerStateRunning TimerState = "running"
	// TimerStateStopped indicates the timer was stopped before expiration.
	TimerStateStopped TimerState = "stopped"
	// TimerStateExpired indicates the timer has expired and its callback was started.
	TimerStateExpired TimerState = "expired"
)

// Timer is a one-shot timer that tracks its start time, duration and state.
// It wraps [time.AfterFunc] so the remaining time and the state can be
// inspected while the timer is running, e.g. for logging.
type Timer struct {
	mu        sync.Mutex
	startTime time.Time
	duration  time.Duration
	state     TimerState
	realTimer *time.Timer
}

// AfterFunc creates a new Timer with the given duration and callback.
// The timer is started immediately and f is called in its own goroutine
// when the timer expires.
func AfterFunc(d time.Duration, f func()) *Timer {
	t := &Timer{
		startTime: time.Now(),
		duration:  d,
		state:     TimerStateRunning,
	}
	t.realTimer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.state != TimerStateRunning {
			t.mu.Unlock()
			return
		}
		t.state = TimerStateExpired
		t.mu.Unlock()

		f()
	})
	return t
}

// State returns the current timer state.
func (t *Timer) State() TimerState {
	if t == nil {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Duration returns the timer's duration.
func (t *Timer) Duration() time.Duration {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// Left returns the time remaining until the timer expires.
// Returns 0 if the timer is expired or stopped.
func (t *Timer) Left() time.Duration {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerStateRunning {
		return 0
	}
	return max(t.duration-time.Since(t.startTime), 0)
}

// Stop prevents the timer from firing.
// It returns false if the timer has already expired or been stopped.
// Like [time.Timer.Stop], it does not wait for an already started callback.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerStateRunning {
		return false
	}
	t.state = TimerStateStopped
	t.realTimer.Stop()
	return true
}
