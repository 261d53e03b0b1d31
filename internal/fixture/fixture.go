// Package fixture generates synthetic log lines at a controlled pace,
// for replaying content with a fixed delay between lines without
// depending on a checked-in sample log.
package fixture

import (
	"fmt"
	"io"
	"time"
)

var levels = []string{"info", "info", "warn", "error"}

// GenerateLines returns n synthetic, pattern-parseable log lines of the
// form "<level> seq=<n> msg=<text>", cycling through a fixed set of
// levels so callers can exercise both the common and rare cases of a
// pattern-mode parser.
func GenerateLines(n int) []string {
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		level := levels[i%len(levels)]
		lines[i] = fmt.Sprintf("%s seq=%d msg=request %d handled", level, i, i)
	}
	return lines
}

// WriteWithDelay writes each line to w followed by a newline, pausing
// delay between writes. It stops at the first write error. Used to feed
// a FileSource or StreamSource lines the way a slowly-logging process
// would, rather than all at once.
func WriteWithDelay(w io.Writer, lines []string, delay time.Duration) error {
	for i, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("fixture: write line %d: %w", i, err)
		}
		if delay > 0 && i < len(lines)-1 {
			time.Sleep(delay)
		}
	}
	return nil
}

// Pattern is the regular expression GenerateLines's output satisfies,
// exported so callers don't have to duplicate it.
const Pattern = `^(?P<level>\w+) seq=(?P<seq>\d+) msg=(?P<msg>.+)$`

// FieldNames is the capture-group field order matching Pattern.
var FieldNames = []string{"level", "seq", "msg"}
