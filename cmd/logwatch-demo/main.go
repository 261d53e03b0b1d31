// Command logwatch-demo is a runnable example of logwatch.Reader, not a
// product: it tails a file or a child process's combined output and
// renders matched/unmatched records in a scrolling terminal viewer,
// exiting non-zero with a rendered snapshot if a -wait-for template
// times out. Useful for debugging a flaky waitForMatch call
// interactively, the way a harness author would reach for logpilot to
// debug a malformed log line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clarabennett2626/logwatch"
	"github.com/clarabennett2626/logwatch/internal/fixture"
)

func main() {
	var (
		path       = flag.String("path", "", "file to tail")
		cmdLine    = flag.String("cmd", "", "command to run and tail its combined output")
		synthetic  = flag.Bool("synthetic", false, "tail synthetic fixture data instead of -path/-cmd")
		pattern    = flag.String("pattern", "", "capture-group regular expression (pattern mode)")
		fieldNames = flag.String("fields", "", "comma-separated field names matching -pattern's capture groups")
		configPath = flag.String("config", "", "optional TOML file providing pattern/fields/timeout")
		waitFor    = flag.String("wait-for", "", "comma-separated field=value pairs; demo exits after the first match")
		timeoutStr = flag.String("timeout", "3s", "-wait-for deadline")
	)
	flag.Parse()

	if *configPath != "" {
		cfg, err := loadFileConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *pattern == "" {
			*pattern = cfg.Pattern
		}
		if *fieldNames == "" {
			*fieldNames = strings.Join(cfg.FieldNames, ",")
		}
		if d, err := cfg.timeout(); err == nil && d > 0 {
			*timeoutStr = d.String()
		}
	}

	// Synthetic data has a known shape, so it needs no -pattern of its own.
	if *synthetic && *pattern == "" {
		*pattern = fixture.Pattern
		if *fieldNames == "" {
			*fieldNames = strings.Join(fixture.FieldNames, ",")
		}
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -timeout: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	target, sourceName, cleanup, err := resolveTarget(ctx, *path, *cmdLine, *synthetic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	watchCfg, err := buildConfig(*pattern, *fieldNames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	watcher, err := logwatch.NewWatcher(target, watchCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	reader := logwatch.NewReader(watcher)
	if err := reader.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer reader.Stop()

	tmpl := parseTemplate(*waitFor)

	// A viewport-scrolled TUI needs a real terminal underneath it; when
	// stdout isn't one (piped to a file, captured by a test, redirected
	// in CI) fall back to a flat, line-at-a-time rendering instead of
	// letting bubbletea fail trying to draw one.
	if isHeadless() {
		runHeadless(reader, tmpl, timeout, *waitFor != "")
		return
	}

	m := newModel(sourceName, *waitFor != "")
	prog := tea.NewProgram(m, tea.WithAltScreen())

	go pumpRecords(reader, prog, tmpl)

	if *waitFor != "" {
		go func() {
			rec, err := reader.WaitForMatch(tmpl, logwatch.WithTimeout(timeout))
			prog.Send(waitDoneMsg{rec: rec, err: err})
		}()
	}

	finalModel, err := prog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if fm, ok := finalModel.(model); ok && fm.waitResult != nil && fm.waitResult.err != nil {
		fmt.Fprintf(os.Stderr, "wait-for failed: %v\n", fm.waitResult.err)
		if te, ok := fm.waitResult.err.(*logwatch.TimeoutError); ok {
			for _, rec := range te.Records {
				fmt.Fprintln(os.Stderr, renderRecord(rec, false))
			}
		}
		os.Exit(1)
	}
}

// isHeadless reports whether stdout is not a terminal, the same
// character-device check logpilot's stdin.IsPipe uses on the opposite
// end of the pipe.
func isHeadless() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// pumpInterval is how often the demo polls a Reader's buffered
// snapshots for records/errors that arrived since the last poll. Both
// the TUI pump and the headless pump use it instead of reading
// watcher.Logs()/Errs() directly, which would race the Reader's own
// pump goroutine for the same channel deliveries.
const pumpInterval = 20 * time.Millisecond

// runHeadless prints each record as a plain line, the non-interactive
// counterpart to the bubbletea viewer. If waitForSet, it exits non-zero
// on a -wait-for timeout or upstream error instead of running forever.
func runHeadless(r *logwatch.Reader, tmpl logwatch.Template, timeout time.Duration, waitForSet bool) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		lastRecs, lastErrs := 0, 0
		ticker := time.NewTicker(pumpInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				lastRecs, lastErrs = printNewRecords(r, tmpl, lastRecs, lastErrs)
			case <-r.Done():
				printNewRecords(r, tmpl, lastRecs, lastErrs)
				return
			}
		}
	}()

	if !waitForSet {
		<-done
		return
	}

	rec, err := r.WaitForMatch(tmpl, logwatch.WithTimeout(timeout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "wait-for failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(renderRecord(rec, true))
}

func printNewRecords(r *logwatch.Reader, tmpl logwatch.Template, lastRecs, lastErrs int) (int, int) {
	recs := r.GetRecords()
	for _, rec := range recs[lastRecs:] {
		fmt.Println(renderRecord(rec, len(tmpl) > 0 && logwatch.Matches(rec, tmpl)))
	}
	errs := r.GetErrors()
	for _, err := range errs[lastErrs:] {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
	}
	return len(recs), len(errs)
}

// pumpRecords relays a Reader's buffered records/errors into the
// bubbletea program as they accumulate, independent of whether a
// -wait-for goroutine is also blocked on the same Reader.
func pumpRecords(r *logwatch.Reader, prog *tea.Program, tmpl logwatch.Template) {
	lastRecs, lastErrs := 0, 0
	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			lastRecs, lastErrs = sendNewRecords(r, prog, tmpl, lastRecs, lastErrs)
		case <-r.Done():
			sendNewRecords(r, prog, tmpl, lastRecs, lastErrs)
			return
		}
	}
}

func sendNewRecords(r *logwatch.Reader, prog *tea.Program, tmpl logwatch.Template, lastRecs, lastErrs int) (int, int) {
	recs := r.GetRecords()
	for _, rec := range recs[lastRecs:] {
		prog.Send(recordMsg{rec: rec, matched: len(tmpl) > 0 && logwatch.Matches(rec, tmpl)})
	}
	errs := r.GetErrors()
	for _, err := range errs[lastErrs:] {
		prog.Send(errMsg{err: err})
	}
	return len(recs), len(errs)
}

func buildConfig(pattern, fieldsCSV string) (logwatch.Config, error) {
	if pattern == "" {
		return logwatch.Config{}, fmt.Errorf("unsupported method: -pattern (or -config) is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return logwatch.Config{}, fmt.Errorf("compiling -pattern: %w", err)
	}
	var fields []string
	if fieldsCSV != "" {
		fields = strings.Split(fieldsCSV, ",")
	}
	return logwatch.Config{Pattern: re, FieldNames: fields}, nil
}

func parseTemplate(csv string) logwatch.Template {
	if csv == "" {
		return nil
	}
	tmpl := logwatch.Template{}
	for _, pair := range strings.Split(csv, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		tmpl[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return tmpl
}

// resolveTarget turns the command-line source selection into a
// logwatch.Target, a human-readable name for the status bar, and a
// cleanup func the caller must defer.
func resolveTarget(ctx context.Context, path, cmdLine string, synthetic bool) (logwatch.Target, string, func(), error) {
	switch {
	case synthetic:
		r, w, err := os.Pipe()
		if err != nil {
			return logwatch.Target{}, "", nil, fmt.Errorf("creating synthetic pipe: %w", err)
		}
		go func() {
			defer w.Close()
			fixture.WriteWithDelay(w, fixture.GenerateLines(200), 150*time.Millisecond)
		}()
		return logwatch.ByteStream(r), "synthetic", func() { r.Close() }, nil

	case cmdLine != "":
		c := exec.CommandContext(ctx, "sh", "-c", cmdLine)
		out, err := c.StdoutPipe()
		if err != nil {
			return logwatch.Target{}, "", nil, fmt.Errorf("piping command output: %w", err)
		}
		c.Stderr = c.Stdout
		if err := c.Start(); err != nil {
			return logwatch.Target{}, "", nil, fmt.Errorf("starting command: %w", err)
		}
		return logwatch.ByteStream(out), "cmd: " + cmdLine, func() { c.Wait() }, nil

	case path != "":
		return logwatch.FilePath(path), path, func() {}, nil

	default:
		return logwatch.Target{}, "", nil, fmt.Errorf("unsupported method: one of -path, -cmd, or -synthetic is required")
	}
}
