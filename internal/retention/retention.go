// Package retention implements the "hold the last record" buffering
// policy used in pattern mode: a record is never emitted the instant it
// is parsed, because a continuation line belonging to it may still be
// on the way. It is released either by the arrival of a successor
// record, by expiry of a retention timer, or by explicit Flush at
// shutdown.
package retention

import (
	"time"

	"github.com/clarabennett2626/logwatch/internal/recparse"
)

// Engine holds at most one record at a time plus
// bookkeeping for an optional retention timer. It is not safe for
// concurrent use: the owning pipeline must drive it from a single
// goroutine, matching the rest of the watcher's serial-stage model.
type Engine struct {
	timeout time.Duration
	buffer  []*recparse.Record
	timer   *time.Timer
}

// New returns an Engine that releases a retained record after timeout
// of quiescence.
func New(timeout time.Duration) *Engine {
	return &Engine{timeout: timeout}
}

// TimerC returns the engine's retention timer channel. It is nil
// (blocks forever in a select) whenever no record is currently
// retained, so callers can unconditionally select on it.
func (e *Engine) TimerC() <-chan time.Time {
	if e.timer == nil {
		return nil
	}
	return e.timer.C
}

// Append adds rec to the buffer and returns every record that the
// policy now requires to be emitted immediately — every record in the
// buffer except the newest, which becomes the sole retained record
// under a freshly armed timer.
func (e *Engine) Append(rec *recparse.Record) []*recparse.Record {
	e.cancelTimer()
	e.buffer = append(e.buffer, rec)
	emit := e.buffer[:len(e.buffer)-1]
	retained := e.buffer[len(e.buffer)-1]
	e.buffer = []*recparse.Record{retained}
	e.armTimer()
	return emit
}

// NoteActivity cancels and re-arms the pending timer, used whenever new
// bytes arrive even if they did not complete a new record. This keeps
// an actively-writing SUT from causing a premature flush of a
// multi-line record in progress.
func (e *Engine) NoteActivity() {
	if len(e.buffer) == 0 {
		return
	}
	e.cancelTimer()
	e.armTimer()
}

// AppendViolationText appends text, separated by sep, onto the last
// field of the currently retained record. It reports false if nothing
// is retained, in which case the caller must surface the line as a
// fresh pattern-violation error instead.
func (e *Engine) AppendViolationText(text, sep string) bool {
	if len(e.buffer) == 0 {
		return false
	}
	e.buffer[len(e.buffer)-1].AppendToLast(text, sep)
	return true
}

// Expire is called when the timer fires. It releases the retained
// record and clears the buffer.
func (e *Engine) Expire() []*recparse.Record {
	e.timer = nil
	released := e.buffer
	e.buffer = nil
	return released
}

// Flush releases whatever is currently retained, cancelling the timer.
// Used on stop() so that no record is ever silently lost.
func (e *Engine) Flush() []*recparse.Record {
	e.cancelTimer()
	released := e.buffer
	e.buffer = nil
	return released
}

func (e *Engine) armTimer() {
	if len(e.buffer) == 0 {
		return
	}
	e.timer = time.NewTimer(e.timeout)
}

func (e *Engine) cancelTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
