package logwatch

import (
	"fmt"
	"strings"
)

// TimeoutError is returned by WaitForMatch when no matching record
// arrived before the deadline. Records is a snapshot of the reader's
// buffer at the moment of expiry, carried so an assertion adapter (see
// logwatchtest) can render it for diagnosis.
type TimeoutError struct {
	Records []*Record
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("logwatch: timed out waiting for a matching record (%d records observed)", len(e.Records))
}

// UnexpectedRecordError is returned by a strict-mode wait when the
// first record examined — buffered or future — does not match the
// template.
type UnexpectedRecordError struct {
	Record *Record
}

func (e *UnexpectedRecordError) Error() string {
	return fmt.Sprintf("logwatch: strict wait observed a non-matching record: %v", e.Record.Names())
}

// UpstreamError is returned when one or more parse/I/O errors had
// already surfaced before, or arrived during, a wait. Records are
// never considered once this fires.
type UpstreamError struct {
	Errors []error
}

func (e *UpstreamError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("logwatch: upstream error(s):\n%s", strings.Join(msgs, "\n"))
}

func (e *UpstreamError) Unwrap() []error { return e.Errors }

// StoppedError is returned to any waiter still in flight when the
// Reader is stopped, rather than leaving it armed to expire on its own
// timeout: Stop should release every resource it owns, including
// goroutines blocked in WaitForMatch.
type StoppedError struct{}

func (e *StoppedError) Error() string { return "logwatch: reader was stopped while a wait was in flight" }
