package logwatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
)

// Template declares what a Record must look like to be considered a
// match. Each value is one of: a literal (matched by equality), a
// *regexp.Regexp (matched against the field's stringified value), or
// the Absent sentinel (matches if the field is present with any
// value). An empty (nil or zero-length) Template matches any record.
type Template map[string]any

type absentSentinel struct{}

// Absent is the existence-probe sentinel: use it as a Template value to
// require only that a field be present, regardless of its content.
var Absent = absentSentinel{}

// Matches reports whether rec satisfies every field/value pair in
// tmpl. A template built from a record's own fields always matches
// that record (see template_test.go's
// TestMatches_TemplateBuiltFromRecordAlwaysMatchesItself).
func Matches(rec *Record, tmpl Template) bool {
	for field, expected := range tmpl {
		v, ok := rec.Get(field)
		if !ok {
			return false
		}
		switch want := expected.(type) {
		case absentSentinel:
			continue
		case *regexp.Regexp:
			if !want.MatchString(stringify(v)) {
				return false
			}
		default:
			if !valuesEqual(v, expected) {
				return false
			}
		}
	}
	return true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// valuesEqual performs native-value equality for non-regex, non-absent
// fields. The one accommodation beyond reflect.DeepEqual is numeric: structured-
// document mode decodes numbers as json.Number (to avoid float
// imprecision on integers), so a template literal written as a plain
// Go int or float64 must still compare equal to it.
func valuesEqual(a, b any) bool {
	if an, ok := a.(json.Number); ok {
		if bf, ok := toFloat(b); ok {
			af, err := an.Float64()
			return err == nil && af == bf
		}
	}
	if bn, ok := b.(json.Number); ok {
		if af, ok := toFloat(a); ok {
			bf, err := bn.Float64()
			return err == nil && af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
