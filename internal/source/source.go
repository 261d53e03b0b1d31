// Package source turns a log origin — a filesystem path or a readable
// byte stream such as a child process's standard output — into a
// sequence of byte chunks delivered over a channel, plus an error
// channel for I/O failures distinct from parse errors. Line splitting
// is deliberately not this package's job; that belongs to
// internal/reassemble.
package source

import "context"

// Source is the common contract for both file-mode and stream-mode
// adapters.
type Source interface {
	// Start begins delivering chunks. It returns once the underlying
	// watch/read loop is running (or fails synchronously on
	// construction-time errors such as a missing watch directory); it
	// does not block for the source's lifetime.
	Start(ctx context.Context) error
	// Chunks delivers newly observed byte ranges in source order.
	Chunks() <-chan []byte
	// Errors delivers I/O failures. A missing file is never reported
	// here — only failures other than "does not exist".
	Errors() <-chan error
	// Stop releases the source's resources. Idempotent.
	Stop() error
}

// IOError wraps an underlying system error surfaced by a source
// adapter, kept distinct from recparse.ParseError so a Reader can tell
// "the SUT wrote something unparseable" apart from "we could not read
// the SUT's log at all".
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }
