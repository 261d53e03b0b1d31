package logwatch

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestMatches_EmptyTemplateMatchesAnyRecord(t *testing.T) {
	rec := NewRecord()
	rec.Set("x", "y")
	if !Matches(rec, nil) {
		t.Fatalf("empty template should match any record")
	}
}

func TestMatches_LiteralEquality(t *testing.T) {
	rec := NewRecord()
	rec.Set("level", "error")
	if !Matches(rec, Template{"level": "error"}) {
		t.Fatalf("expected a match on equal literal")
	}
	if Matches(rec, Template{"level": "info"}) {
		t.Fatalf("expected no match on unequal literal")
	}
}

func TestMatches_MissingFieldNeverMatches(t *testing.T) {
	rec := NewRecord()
	rec.Set("level", "error")
	if Matches(rec, Template{"missing": "anything"}) {
		t.Fatalf("expected no match when the field is absent")
	}
}

func TestMatches_AbsentSentinelChecksPresenceOnly(t *testing.T) {
	rec := NewRecord()
	rec.Set("trace_id", "abc123")
	if !Matches(rec, Template{"trace_id": Absent}) {
		t.Fatalf("expected Absent to match on mere presence")
	}
	if Matches(rec, Template{"missing_field": Absent}) {
		t.Fatalf("expected Absent to fail when the field truly is absent")
	}
}

func TestMatches_RegexAgainstStringifiedValue(t *testing.T) {
	rec := NewRecord()
	rec.Set("path", "/users/42")
	re := regexp.MustCompile(`^/users/\d+$`)
	if !Matches(rec, Template{"path": re}) {
		t.Fatalf("expected regex match")
	}
}

func TestMatches_JSONNumberComparesAgainstPlainLiteral(t *testing.T) {
	rec := NewRecord()
	rec.Set("code", json.Number("200"))
	if !Matches(rec, Template{"code": 200}) {
		t.Fatalf("expected json.Number(200) to equal int 200")
	}
	if !Matches(rec, Template{"code": 200.0}) {
		t.Fatalf("expected json.Number(200) to equal float64 200.0")
	}
	if Matches(rec, Template{"code": 201}) {
		t.Fatalf("expected no match against a different number")
	}
}

func TestMatches_TemplateBuiltFromRecordAlwaysMatchesItself(t *testing.T) {
	rec := NewRecord()
	rec.Set("a", "1")
	rec.Set("b", "2")
	tmpl := Template{}
	for _, name := range rec.Names() {
		v, _ := rec.Get(name)
		tmpl[name] = v
	}
	if !Matches(rec, tmpl) {
		t.Fatalf("a template built from a record's own fields must match that record")
	}
}
