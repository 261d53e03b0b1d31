// Package logwatchtest adapts logwatch.Reader to testing.TB, the way a
// test harness actually wants to call it: fail the test with a readable
// dump of what was observed instead of propagating an error value.
package logwatchtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/clarabennett2626/logwatch"
	"github.com/stretchr/testify/require"
)

// RequireMatch waits for a record matching tmpl, failing t immediately if
// WaitForMatch returns any error. A *logwatch.TimeoutError is rendered
// with every record buffered so far so the failure is diagnosable without
// re-running under -v; other error types are reported with their own
// Error() text.
func RequireMatch(t testing.TB, r *logwatch.Reader, tmpl logwatch.Template, opts ...logwatch.WaitOption) *logwatch.Record {
	t.Helper()

	rec, err := r.WaitForMatch(tmpl, opts...)
	if err == nil {
		return rec
	}

	var timeout *logwatch.TimeoutError
	if asTimeoutError(err, &timeout) {
		require.FailNow(t, "logwatch: no matching record arrived before the deadline", renderRecords(timeout.Records))
	}
	require.FailNow(t, "logwatch: wait failed", err.Error())
	return nil
}

func asTimeoutError(err error, target **logwatch.TimeoutError) bool {
	te, ok := err.(*logwatch.TimeoutError)
	if !ok {
		return false
	}
	*target = te
	return true
}

func renderRecords(records []*logwatch.Record) string {
	if len(records) == 0 {
		return "(no records observed)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d record(s) observed:\n", len(records))
	for i, rec := range records {
		fmt.Fprintf(&b, "  [%d]", i)
		for _, name := range rec.Names() {
			v, _ := rec.Get(name)
			fmt.Fprintf(&b, " %s=%v", name, v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
