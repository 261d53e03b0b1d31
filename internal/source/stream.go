package source

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// StreamSource adapts an arbitrary byte stream — a child process's
// combined stdout/stderr, a net.Conn, anything implementing io.Reader —
// into the Source contract. Each Read delivers exactly one chunk, in
// source order; there is no seeking and no size tracking, unlike
// FileSource.
type StreamSource struct {
	reader io.Reader

	chunks chan []byte
	errs   chan error

	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
}

// NewStreamSource wraps r.
func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{
		reader:  r,
		chunks:  make(chan []byte, 64),
		errs:    make(chan error, 1),
		stopped: make(chan struct{}),
	}
}

func (s *StreamSource) Chunks() <-chan []byte { return s.chunks }
func (s *StreamSource) Errors() <-chan error  { return s.errs }

// Start reads from the stream until ctx is cancelled or the stream
// reports EOF. Because io.Reader has no cancellable Read, shutdown via
// ctx relies on the caller also closing or otherwise unblocking the
// underlying reader (e.g. terminating the child process).
func (s *StreamSource) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		defer close(s.chunks)
		defer close(s.errs)
		defer close(s.stopped)

		buf := make([]byte, 64*1024)
		for {
			n, err := s.reader.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case s.chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					select {
					case s.errs <- &IOError{Err: fmt.Errorf("reading stream: %w", err)}:
					case <-ctx.Done():
					}
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
	return nil
}

// Stop cancels reading and waits for the reader goroutine to exit. If
// the underlying reader never unblocks on its own (no EOF, no error),
// Stop can only return once ctx cancellation is observed between reads.
func (s *StreamSource) Stop() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	<-s.stopped
	return nil
}
