package logwatch

import (
	"context"
	"sync"
	"time"
)

// DefaultWaitTimeout is used by WaitForMatch when no WithTimeout option
// is given.
const DefaultWaitTimeout = 3 * time.Second

// WaitOptions configures a single WaitForMatch call.
type WaitOptions struct {
	Timeout time.Duration
	Strict  bool
}

// WaitOption mutates WaitOptions; used the same functional-options way
// as Option configures a Watcher.
type WaitOption func(*WaitOptions)

// WithTimeout overrides DefaultWaitTimeout for one WaitForMatch call.
func WithTimeout(d time.Duration) WaitOption {
	return func(o *WaitOptions) { o.Timeout = d }
}

// WithStrict makes WaitForMatch fail on the very first record it
// examines — buffered or future — if that record does not match.
func WithStrict(strict bool) WaitOption {
	return func(o *WaitOptions) { o.Strict = strict }
}

type waitResult struct {
	rec *Record
	err error
}

type waiter struct {
	tmpl   Template
	strict bool
	done   chan struct{}
	res    waitResult
}

// Reader wraps a Watcher 1:1, accumulating every record and error it
// produces, and lets a caller block until a record matching a Template
// arrives (spec component C5).
type Reader struct {
	watcher *Watcher

	mu      sync.Mutex
	records []*Record
	errs    []error
	waiters map[*waiter]struct{}

	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewReader wraps watcher. The Reader does not start the watcher; call
// Start.
func NewReader(watcher *Watcher) *Reader {
	return &Reader{watcher: watcher}
}

// Start resets the record and error buffers and starts the underlying
// Watcher. Calling Start while already running restarts cleanly (it
// calls Stop defensively first).
func (r *Reader) Start(ctx context.Context) error {
	r.Stop()

	r.mu.Lock()
	r.records = nil
	r.errs = nil
	r.waiters = make(map[*waiter]struct{})
	r.mu.Unlock()

	if err := r.watcher.Start(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})
	go r.pump(runCtx)
	return nil
}

// Stop detaches from the watcher's notifications and stops it.
// Idempotent. Any WaitForMatch call still in flight is failed
// immediately with a *StoppedError rather than left to expire on its
// own timeout, so Stop releases every goroutine it owns.
func (r *Reader) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.stopped != nil {
		<-r.stopped
	}
	r.cancel = nil
	r.watcher.Stop()

	r.mu.Lock()
	for w := range r.waiters {
		delete(r.waiters, w)
		w.res = waitResult{err: &StoppedError{}}
		close(w.done)
	}
	r.mu.Unlock()
	return nil
}

func (r *Reader) pump(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-r.watcher.Logs():
			if !ok {
				return
			}
			r.onRecord(rec)
		case err, ok := <-r.watcher.Errs():
			if !ok {
				return
			}
			r.onError(err)
		}
	}
}

func (r *Reader) onRecord(rec *Record) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	var toFire []*waiter
	for w := range r.waiters {
		if w.strict {
			delete(r.waiters, w)
			if Matches(rec, w.tmpl) {
				w.res = waitResult{rec: rec}
			} else {
				w.res = waitResult{err: &UnexpectedRecordError{Record: rec}}
			}
			toFire = append(toFire, w)
			continue
		}
		if Matches(rec, w.tmpl) {
			delete(r.waiters, w)
			w.res = waitResult{rec: rec}
			toFire = append(toFire, w)
		}
	}
	r.mu.Unlock()

	for _, w := range toFire {
		close(w.done)
	}
}

func (r *Reader) onError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	var toFire []*waiter
	for w := range r.waiters {
		delete(r.waiters, w)
		w.res = waitResult{err: &UpstreamError{Errors: []error{err}}}
		toFire = append(toFire, w)
	}
	r.mu.Unlock()

	for _, w := range toFire {
		close(w.done)
	}
}

// Done returns a channel that closes once the Reader stops consuming
// its Watcher: either the underlying stream ended (the watcher's
// channels closed on their own) or Stop was called. Callers that poll
// GetRecords/GetErrors for new arrivals use this to know when polling
// can stop.
func (r *Reader) Done() <-chan struct{} { return r.stopped }

// GetRecords returns a snapshot of every record observed so far.
func (r *Reader) GetRecords() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Record(nil), r.records...)
}

// GetErrors returns a snapshot of every error observed so far.
func (r *Reader) GetErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// WaitForMatch blocks until a Record satisfying tmpl arrives, the
// deadline (default DefaultWaitTimeout) elapses, or strict mode rejects
// the first record it examines. A nil or empty Template matches any
// record.
//
// If the error list is already non-empty when WaitForMatch is called,
// it fails immediately with *UpstreamError without considering any
// record — errors always take precedence.
func (r *Reader) WaitForMatch(tmpl Template, opts ...WaitOption) (*Record, error) {
	o := WaitOptions{Timeout: DefaultWaitTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	if len(r.errs) > 0 {
		errsCopy := append([]error(nil), r.errs...)
		r.mu.Unlock()
		return nil, &UpstreamError{Errors: errsCopy}
	}

	if o.Strict {
		if len(r.records) > 0 {
			rec := r.records[0]
			r.mu.Unlock()
			if Matches(rec, tmpl) {
				return rec, nil
			}
			return nil, &UnexpectedRecordError{Record: rec}
		}
	} else {
		for _, rec := range r.records {
			if Matches(rec, tmpl) {
				r.mu.Unlock()
				return rec, nil
			}
		}
	}

	w := &waiter{tmpl: tmpl, strict: o.Strict, done: make(chan struct{})}
	if r.waiters == nil {
		r.waiters = make(map[*waiter]struct{})
	}
	r.waiters[w] = struct{}{}
	r.mu.Unlock()

	timer := time.NewTimer(o.Timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return w.res.rec, w.res.err
	case <-timer.C:
		r.mu.Lock()
		if _, stillActive := r.waiters[w]; stillActive {
			delete(r.waiters, w)
			snapshot := append([]*Record(nil), r.records...)
			r.mu.Unlock()
			return nil, &TimeoutError{Records: snapshot}
		}
		r.mu.Unlock()
		// A concurrent record/error dispatch won the race and already
		// resolved this waiter; honour that result instead of
		// reporting a spurious timeout.
		<-w.done
		return w.res.rec, w.res.err
	}
}
