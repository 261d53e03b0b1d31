// Package logwatch tails a log source — a file that may not exist yet,
// or a byte stream such as a child process's combined output — parses
// each line into a structured Record, and lets a caller wait, with a
// timeout, until a Record matching a declarative Template arrives. It
// is built for test harnesses asserting on what a system under test
// wrote to its logs.
package logwatch

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/clarabennett2626/logwatch/internal/reassemble"
	"github.com/clarabennett2626/logwatch/internal/recparse"
	"github.com/clarabennett2626/logwatch/internal/retention"
	"github.com/clarabennett2626/logwatch/internal/source"
)

// DefaultRetainedLogTimeout is how long a pattern-mode watcher holds
// the most recent record before releasing it, absent further activity.
const DefaultRetainedLogTimeout = 300 * time.Millisecond

// Target names what a Watcher observes: exactly one of Path (a
// filesystem path, watched for creation and growth) or Stream (an
// already-open byte stream, such as a child process's stdout).
type Target struct {
	Path   string
	Stream io.Reader
}

// FilePath returns a Target that tails the file at path.
func FilePath(path string) Target { return Target{Path: path} }

// ByteStream returns a Target that reads r until EOF.
func ByteStream(r io.Reader) Target { return Target{Stream: r} }

// Config selects exactly one entry-parsing strategy. It mirrors
// internal/recparse.Config field-for-field; kept as a distinct type so
// the internal package's shape is free to change without touching the
// public API.
type Config struct {
	// Pattern + FieldNames selects pattern mode: Pattern must have
	// exactly len(FieldNames) capture groups.
	Pattern    *regexp.Regexp
	FieldNames []string

	// JSON selects structured-document mode. Schema is optional.
	JSON   bool
	Schema *Schema

	// Func selects custom mode. Returning (nil, nil) means "ignore this
	// line".
	Func func(line string) (*Record, error)
}

func (c Config) toRecparse() recparse.Config {
	return recparse.Config{
		Pattern:    c.Pattern,
		FieldNames: c.FieldNames,
		JSON:       c.JSON,
		Schema:     c.Schema,
		Func:       c.Func,
	}
}

// Option configures a Watcher at construction time.
type Option func(*Watcher)

// WithPolling selects file-mode polling instead of directory-change
// notifications. Has no effect on a stream Target.
func WithPolling(interval time.Duration) Option {
	return func(w *Watcher) {
		w.polling = true
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithAllowPatternViolations makes pattern mode fold a non-matching
// line into the last field of the currently retained record instead of
// surfacing a pattern-violation error, provided a record is in fact
// retained at that moment.
func WithAllowPatternViolations(allow bool) Option {
	return func(w *Watcher) { w.allowViolations = allow }
}

// WithRetainedLogTimeout overrides DefaultRetainedLogTimeout.
func WithRetainedLogTimeout(d time.Duration) Option {
	return func(w *Watcher) { w.retainedLogTimeout = d }
}

// WithAutoStart starts the watcher from NewWatcher, with
// context.Background(), instead of requiring an explicit Start call. A
// Start error is then returned by NewWatcher itself.
func WithAutoStart() Option {
	return func(w *Watcher) { w.autoStart = true }
}

// Watcher is the incremental tailer, parser, and retention engine (spec
// components C1-C4). Construct with NewWatcher, then Start/Stop as
// needed; Logs and Errs deliver notifications in source order.
type Watcher struct {
	target Target
	cfg    recparse.Config
	parser recparse.Parser

	polling            bool
	pollInterval       time.Duration
	allowViolations    bool
	retainedLogTimeout time.Duration
	autoStart          bool

	mu      sync.Mutex
	started bool
	src     source.Source
	cancel  context.CancelFunc
	stopped chan struct{}

	reassembler *reassemble.Reassembler
	retain      *retention.Engine // nil unless pattern mode

	logs chan *Record
	errs chan error
}

// NewWatcher validates cfg and returns a Watcher over target. Exactly
// one parsing strategy must be selected in cfg; an ambiguous or missing
// configuration fails synchronously, as "unsupported method".
func NewWatcher(target Target, cfg Config, opts ...Option) (*Watcher, error) {
	if target.Path == "" && target.Stream == nil {
		return nil, fmt.Errorf("logwatch: unsupported method: target has neither Path nor Stream set")
	}
	if target.Path != "" && target.Stream != nil {
		return nil, fmt.Errorf("logwatch: unsupported method: target has both Path and Stream set")
	}

	rcfg := cfg.toRecparse()
	parser, err := recparse.NewParser(rcfg)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		target:             target,
		cfg:                rcfg,
		parser:             parser,
		pollInterval:       source.DefaultPollInterval,
		retainedLogTimeout: DefaultRetainedLogTimeout,
		reassembler:        reassemble.New(),
	}
	for _, o := range opts {
		o(w)
	}
	if rcfg.IsPatternMode() {
		w.retain = retention.New(w.retainedLogTimeout)
	}
	if w.autoStart {
		if err := w.Start(context.Background()); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Logs delivers parsed records in source order.
func (w *Watcher) Logs() <-chan *Record { return w.logs }

// Errs delivers parse and I/O errors in source order.
func (w *Watcher) Errs() <-chan error { return w.errs }

// Start begins tailing. A repeated Start on an already-running Watcher
// is a no-op; Start after Stop restarts the
// pipeline and clears the line reassembler and retention buffer.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}

	w.reassembler.Reset()
	if w.cfg.IsPatternMode() {
		w.retain = retention.New(w.retainedLogTimeout)
	}
	w.logs = make(chan *Record, 64)
	w.errs = make(chan error, 32)

	var src source.Source
	if w.target.Path != "" {
		var fopts []source.FileOption
		if w.polling {
			fopts = append(fopts, source.WithPolling(w.pollInterval))
		}
		src = source.NewFileSource(w.target.Path, fopts...)
	} else {
		src = source.NewStreamSource(w.target.Stream)
	}
	w.src = src

	if err := src.Start(ctx); err != nil {
		w.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopped = make(chan struct{})
	w.started = true
	w.mu.Unlock()

	go w.run(runCtx)
	return nil
}

// Stop releases the source and the retention timer. Idempotent. Any
// record still retained at the moment of Stop is flushed onto Logs()
// rather than discarded, provided Logs() still has buffer room for it.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	cancel := w.cancel
	src := w.src
	stopped := w.stopped
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if src != nil {
		src.Stop()
	}
	if stopped != nil {
		<-stopped
	}
	return nil
}

// run is the single serial pipeline goroutine: it is the only place
// that touches the reassembler or retention engine, so the two are
// never interleaved for the same watcher without any locking between
// them.
func (w *Watcher) run(ctx context.Context) {
	defer func() {
		if w.retain != nil {
			for _, rec := range w.retain.Flush() {
				// ctx is usually already cancelled here (Stop), so try
				// the buffered channel first instead of racing ctx.Done.
				select {
				case w.logs <- rec:
				default:
					w.emitLog(ctx, rec)
				}
			}
		}
		close(w.logs)
		close(w.errs)
		close(w.stopped)
	}()

	for {
		var timerC <-chan time.Time
		if w.retain != nil {
			timerC = w.retain.TimerC()
		}

		select {
		case <-ctx.Done():
			return

		case chunk, ok := <-w.src.Chunks():
			if !ok {
				// Stream end forces an immediate flush rather than
				// waiting out the retention timer: there will be no
				// further bytes to cancel it.
				if w.retain != nil {
					for _, rec := range w.retain.Flush() {
						w.emitLog(ctx, rec)
					}
				}
				return
			}
			if w.retain != nil {
				w.retain.NoteActivity()
			}
			for _, line := range w.reassembler.Feed(chunk) {
				w.handleLine(ctx, line)
			}

		case err, ok := <-w.src.Errors():
			if !ok {
				continue
			}
			w.emitErr(ctx, err)

		case <-timerC:
			for _, rec := range w.retain.Expire() {
				w.emitLog(ctx, rec)
			}
		}
	}
}

func (w *Watcher) handleLine(ctx context.Context, line string) {
	rec, perr := w.parser.Parse(line)
	if perr != nil {
		if perr.Kind == recparse.KindPatternViolation && w.allowViolations && w.retain != nil {
			if w.retain.AppendViolationText(perr.Line, "\n") {
				return
			}
			// No record is currently retained (e.g. it was just flushed
			// by the timer): treat this as a fresh pattern-violation
			// rather than reaching back into an already-emitted record.
		}
		w.emitErr(ctx, perr)
		return
	}
	if rec == nil {
		return // custom mode: "ignore this line"
	}
	if w.retain != nil {
		for _, r := range w.retain.Append(rec) {
			w.emitLog(ctx, r)
		}
		return
	}
	w.emitLog(ctx, rec)
}

func (w *Watcher) emitLog(ctx context.Context, rec *Record) {
	select {
	case w.logs <- rec:
	case <-ctx.Done():
	}
}

func (w *Watcher) emitErr(ctx context.Context, err error) {
	select {
	case w.errs <- err:
	case <-ctx.Done():
	}
}
