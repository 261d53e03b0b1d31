package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is used when polling mode is selected and no
// interval was supplied.
const DefaultPollInterval = 100 * time.Millisecond

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithPolling selects polling mode instead of directory-change
// notifications — useful on filesystems (typically network mounts)
// where fsnotify delivery is unreliable.
func WithPolling(interval time.Duration) FileOption {
	return func(f *FileSource) {
		f.polling = true
		if interval > 0 {
			f.interval = interval
		}
	}
}

// FileSource tails a single path, detecting both its later creation
// (by watching the parent directory rather than the file itself) and
// its later growth. It never re-reads content present at construction
// time.
type FileSource struct {
	path     string
	polling  bool
	interval time.Duration

	chunks chan []byte
	errs   chan error

	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	prevSize         int64
	lastObservedSize int64
}

// NewFileSource returns a FileSource for path, in change-notification
// mode unless WithPolling is supplied.
func NewFileSource(path string, opts ...FileOption) *FileSource {
	fs := &FileSource{
		path:     path,
		interval: DefaultPollInterval,
		chunks:   make(chan []byte, 64),
		errs:     make(chan error, 32),
		stopped:  make(chan struct{}),
	}
	for _, o := range opts {
		o(fs)
	}
	return fs
}

func (fs *FileSource) Chunks() <-chan []byte { return fs.chunks }
func (fs *FileSource) Errors() <-chan error  { return fs.errs }

// Start begins tailing. The initial read offset is the file's size at
// this moment (zero if it does not yet exist); historical content is
// never delivered.
func (fs *FileSource) Start(ctx context.Context) error {
	ctx, fs.cancel = context.WithCancel(ctx)

	if stat, err := os.Stat(fs.path); err == nil {
		fs.prevSize = stat.Size()
		fs.lastObservedSize = stat.Size()
	}

	g, gctx := errgroup.WithContext(ctx)
	if fs.polling {
		g.Go(func() error { return fs.pollLoop(gctx) })
	} else {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		dir := filepath.Dir(fs.path)
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
		g.Go(func() error {
			defer watcher.Close()
			return fs.watchLoop(gctx, watcher)
		})
	}

	go func() {
		g.Wait()
		close(fs.chunks)
		close(fs.errs)
		close(fs.stopped)
	}()

	return nil
}

// Stop cancels tailing and waits for the watch goroutine to exit.
func (fs *FileSource) Stop() error {
	fs.once.Do(func() {
		if fs.cancel != nil {
			fs.cancel()
		}
	})
	<-fs.stopped
	return nil
}

func (fs *FileSource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	// Pick up whatever already grew between the initial Stat above and
	// the directory watch being armed.
	fs.checkAndRead(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err == nil {
				if target, err := filepath.Abs(fs.path); err == nil && abs != target {
					continue
				}
			}
			fs.checkAndRead(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fs.sendError(ctx, err)
		}
	}
}

func (fs *FileSource) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(fs.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fs.checkAndRead(ctx)
		}
	}
}

// checkAndRead implements the offset-safety and rotation logic shared
// by both watch strategies.
func (fs *FileSource) checkAndRead(ctx context.Context) {
	stat, err := os.Stat(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return // absence is not an error
		}
		fs.sendError(ctx, fmt.Errorf("stat %s: %w", fs.path, err))
		return
	}
	currSize := stat.Size()

	// Rotation/truncation: treat a shrink as the documented fix rather
	// than the documented bug — reset both offsets so the new, smaller
	// file is read from its start.
	if currSize < fs.lastObservedSize {
		fs.prevSize = 0
		fs.lastObservedSize = 0
	}

	prevSize := fs.prevSize
	if fs.lastObservedSize > prevSize {
		prevSize = fs.lastObservedSize
	}
	if prevSize == currSize {
		// The watch layer is known to report duplicate/overlapping
		// ranges; after clamping there is nothing new to read.
		fs.prevSize = currSize
		fs.lastObservedSize = currSize
		return
	}

	data, err := fs.readRange(prevSize, currSize)
	if err != nil {
		fs.sendError(ctx, fmt.Errorf("reading %s: %w", fs.path, err))
		return
	}
	fs.prevSize = currSize
	fs.lastObservedSize = currSize
	if len(data) > 0 {
		fs.sendChunk(ctx, data)
	}
}

func (fs *FileSource) readRange(start, end int64) ([]byte, error) {
	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, end-start)
	if _, err := f.ReadAt(buf, start); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func (fs *FileSource) sendChunk(ctx context.Context, data []byte) {
	select {
	case fs.chunks <- data:
	case <-ctx.Done():
	}
}

func (fs *FileSource) sendError(ctx context.Context, err error) {
	select {
	case fs.errs <- &IOError{Err: err}:
	case <-ctx.Done():
	default:
	}
}
