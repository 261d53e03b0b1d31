package logwatch

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"
)

func collectLogs(t *testing.T, w *Watcher, n int, timeout time.Duration) []*Record {
	t.Helper()
	var got []*Record
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case rec, ok := <-w.Logs():
			if !ok {
				t.Fatalf("Logs() closed after %d of %d records", len(got), n)
			}
			got = append(got, rec)
		case err := <-w.Errs():
			t.Fatalf("unexpected error: %v", err)
		case <-deadline:
			t.Fatalf("timed out after %d of %d records", len(got), n)
		}
	}
	return got
}

func TestWatcher_PatternMode_SingleRecord(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{
		Pattern:    regexp.MustCompile(`^(\w+) (.+)$`),
		FieldNames: []string{"level", "msg"},
	}, WithRetainedLogTimeout(30*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	go func() {
		io.WriteString(w, "info hello world\n")
		w.Close()
	}()

	recs := collectLogs(t, watcher, 1, time.Second)
	if got, _ := recs[0].Get("level"); got != "info" {
		t.Fatalf("level = %v, want info", got)
	}
}

func TestWatcher_RetentionAcrossIncompleteWrites(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{
		Pattern:    regexp.MustCompile(`^(\w+)$`),
		FieldNames: []string{"word"},
	}, WithRetainedLogTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	go func() {
		io.WriteString(w, "first\nsec")
		time.Sleep(10 * time.Millisecond)
		io.WriteString(w, "ond\n")
		w.Close()
	}()

	recs := collectLogs(t, watcher, 2, time.Second)
	if got, _ := recs[0].Get("word"); got != "first" {
		t.Fatalf("recs[0] = %v, want first", got)
	}
	if got, _ := recs[1].Get("word"); got != "second" {
		t.Fatalf("recs[1] = %v, want second", got)
	}
}

func TestWatcher_AllowPatternViolations_FoldsIntoLastField(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{
		Pattern:    regexp.MustCompile(`^>> (.+)$`),
		FieldNames: []string{"msg"},
	},
		WithAllowPatternViolations(true),
		WithRetainedLogTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	go func() {
		io.WriteString(w, ">> stack trace starts here\n")
		io.WriteString(w, "  at frame 1\n")
		io.WriteString(w, "  at frame 2\n")
		w.Close()
	}()

	recs := collectLogs(t, watcher, 1, time.Second)
	got, _ := recs[0].Get("msg")
	want := "stack trace starts here\n  at frame 1\n  at frame 2"
	if got != want {
		t.Fatalf("msg = %q, want %q", got, want)
	}
}

func TestWatcher_PatternViolation_SurfacesAsError(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{
		Pattern:    regexp.MustCompile(`^\d+$`),
		FieldNames: nil,
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	go func() {
		io.WriteString(w, "not a number\n")
		w.Close()
	}()

	select {
	case err := <-watcher.Errs():
		if err == nil {
			t.Fatalf("expected a non-nil error")
		}
	case rec := <-watcher.Logs():
		t.Fatalf("expected an error, got record %v", rec)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the pattern-violation error")
	}
}

func TestWatcher_JSONSchemaViolation(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{
		JSON:   true,
		Schema: &Schema{Type: "object", Required: []string{"id"}},
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	go func() {
		io.WriteString(w, `{"name": "missing an id"}`+"\n")
		w.Close()
	}()

	select {
	case err := <-watcher.Errs():
		var perr *ParseError
		if pe, ok := err.(*ParseError); ok {
			perr = pe
		}
		if perr == nil || perr.Kind != SchemaViolation {
			t.Fatalf("expected a SchemaViolation ParseError, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the schema-violation error")
	}
}

func TestWatcher_StreamEOF_FlushesRetainedRecord(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{
		Pattern:    regexp.MustCompile(`^(\w+)$`),
		FieldNames: []string{"word"},
	}, WithRetainedLogTimeout(10*time.Second)) // long enough that only EOF can release it
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	go func() {
		io.WriteString(w, "onlyrecord\n")
		w.Close()
	}()

	recs := collectLogs(t, watcher, 1, time.Second)
	if got, _ := recs[0].Get("word"); got != "onlyrecord" {
		t.Fatalf("got %v, want onlyrecord", got)
	}
}

func TestWatcher_StartIsIdempotent(t *testing.T) {
	r, w := io.Pipe()
	watcher, err := NewWatcher(ByteStream(r), Config{Func: func(line string) (*Record, error) { return nil, nil }})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("second Start should be a no-op, got: %v", err)
	}
	w.Close() // unblock the stream's pending Read so Stop does not hang
	watcher.Stop()
}

func TestNewWatcher_RejectsEmptyTarget(t *testing.T) {
	_, err := NewWatcher(Target{}, Config{Func: func(string) (*Record, error) { return nil, nil }})
	if err == nil {
		t.Fatalf("expected an error for a Target with neither Path nor Stream")
	}
}
