// Package ticktimer defines C8, the tick-timer collaborator: a monotonic
// clock plus single-outstanding-deadline wakeups, per §5's "single
// outstanding deadline per subject; requesting an earlier deadline
// preempts a later one."
//
// Grounded on the teacher's replication_timer_test.go (a time.Timer wrapped
// behind a small owned-by-one-goroutine type, reset rather than stacked),
// generalized from its fixed republish interval into an arbitrary
// earliest-deadline-wins timer as the spec requires.
package ticktimer

import "time"

// Timer is the tick-timer collaborator (C8, consumed).
type Timer interface {
	Now() time.Time
	TickAt(deadline time.Time)
	TickAfter(delta time.Duration)
}

// Real is a Timer backed by the wall clock and a single underlying
// time.Timer. Firing sends on C; the owner is expected to be the only
// goroutine both arming the timer and draining C (single-lane model, §5).
type Real struct {
	C        chan time.Time
	deadline time.Time
	timer    *time.Timer
}

// NewReal creates a Real timer with no deadline armed.
func NewReal() *Real {
	return &Real{C: make(chan time.Time, 1)}
}

func (r *Real) Now() time.Time { return time.Now() }

// TickAt arms (or re-arms) the timer for deadline, preempting any later
// pending deadline. An earlier already-armed deadline is left alone: per
// §5, the earliest deadline always wins.
func (r *Real) TickAt(deadline time.Time) {
	if r.timer != nil && !r.deadline.IsZero() && r.deadline.Before(deadline) && r.Now().Before(r.deadline) {
		return
	}
	r.arm(deadline)
}

// TickAfter is TickAt(Now() + delta).
func (r *Real) TickAfter(delta time.Duration) {
	r.TickAt(r.Now().Add(delta))
}

func (r *Real) arm(deadline time.Time) {
	if r.timer != nil {
		r.timer.Stop()
		drain(r.C)
	}
	r.deadline = deadline
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	r.timer = time.AfterFunc(d, func() {
		select {
		case r.C <- deadline:
		default:
		}
	})
}

func drain(c chan time.Time) {
	select {
	case <-c:
	default:
	}
}

// Stop cancels any pending deadline.
func (r *Real) Stop() {
	if r.timer != nil {
		r.timer.Stop()
		drain(r.C)
	}
	r.deadline = time.Time{}
}
