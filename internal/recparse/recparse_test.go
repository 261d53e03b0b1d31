package recparse

import (
	"regexp"
	"testing"
)

func TestNewParser_RejectsNoStrategy(t *testing.T) {
	if _, err := NewParser(Config{}); err == nil {
		t.Fatalf("expected an error for a Config selecting no strategy")
	}
}

func TestNewParser_RejectsAmbiguousStrategy(t *testing.T) {
	cfg := Config{
		Pattern: regexp.MustCompile(`(?P<x>.*)`),
		FieldNames: []string{"x"},
		JSON: true,
	}
	if _, err := NewParser(cfg); err == nil {
		t.Fatalf("expected an error for a Config selecting two strategies")
	}
}

func TestNewParser_RejectsMismatchedFieldNames(t *testing.T) {
	cfg := Config{
		Pattern:    regexp.MustCompile(`(\w+) (\w+)`),
		FieldNames: []string{"only-one"},
	}
	if _, err := NewParser(cfg); err == nil {
		t.Fatalf("expected an error when FieldNames length does not match capture group count")
	}
}

func TestPatternParser_ParsesNamedFieldsInOrder(t *testing.T) {
	cfg := Config{
		Pattern:    regexp.MustCompile(`^(\w+) (\w+)=(\w+)$`),
		FieldNames: []string{"level", "key", "value"},
	}
	p, err := NewParser(cfg)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	rec, perr := p.Parse("info code=200")
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if got, _ := rec.Get("level"); got != "info" {
		t.Fatalf("level = %v, want info", got)
	}
	if got, _ := rec.Get("value"); got != "200" {
		t.Fatalf("value = %v, want 200", got)
	}
	if last, ok := rec.LastField(); !ok || last != "value" {
		t.Fatalf("LastField() = %q, %v, want value, true", last, ok)
	}
}

func TestPatternParser_ReportsPatternViolation(t *testing.T) {
	cfg := Config{
		Pattern:    regexp.MustCompile(`^\d+$`),
		FieldNames: nil,
	}
	p, err := NewParser(cfg)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	_, perr := p.Parse("not a number")
	if perr == nil {
		t.Fatalf("expected a pattern-violation error")
	}
	if perr.Kind != KindPatternViolation {
		t.Fatalf("Kind = %v, want KindPatternViolation", perr.Kind)
	}
}

func TestJSONParser_DecodesObjectFieldsSorted(t *testing.T) {
	p, err := NewParser(Config{JSON: true})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	rec, perr := p.Parse(`{"b": 2, "a": "x"}`)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if got := rec.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", got)
	}
}

func TestJSONParser_RejectsMalformedDocument(t *testing.T) {
	p, err := NewParser(Config{JSON: true})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	_, perr := p.Parse(`{not json`)
	if perr == nil || perr.Kind != KindMalformedDocument {
		t.Fatalf("expected KindMalformedDocument, got %v", perr)
	}
}

func TestJSONParser_AppliesSchema(t *testing.T) {
	schema := &Schema{
		Type:     "object",
		Required: []string{"id"},
	}
	p, err := NewParser(Config{JSON: true, Schema: schema})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	_, perr := p.Parse(`{"name": "no id here"}`)
	if perr == nil || perr.Kind != KindSchemaViolation {
		t.Fatalf("expected KindSchemaViolation, got %v", perr)
	}
	if len(perr.Detail) == 0 {
		t.Fatalf("expected schema findings in Detail")
	}
}

func TestJSONParser_ScalarTopLevelDocument(t *testing.T) {
	p, err := NewParser(Config{JSON: true})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	rec, perr := p.Parse(`42`)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	if got, ok := rec.Get("value"); !ok || got == nil {
		t.Fatalf("expected a synthetic value field, got %v, %v", got, ok)
	}
}

func TestFuncParser_IgnoresNilRecord(t *testing.T) {
	p, err := NewParser(Config{Func: func(line string) (*Record, error) { return nil, nil }})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	rec, perr := p.Parse("anything")
	if rec != nil || perr != nil {
		t.Fatalf("expected nil, nil for an ignored line, got %v, %v", rec, perr)
	}
}

func TestFuncParser_RecoversFromPanic(t *testing.T) {
	p, err := NewParser(Config{Func: func(line string) (*Record, error) {
		panic("boom")
	}})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	_, perr := p.Parse("anything")
	if perr == nil || perr.Kind != KindCustomParseFailure {
		t.Fatalf("expected KindCustomParseFailure, got %v", perr)
	}
}

func TestRecord_AppendToLast(t *testing.T) {
	rec := NewRecord()
	rec.Set("msg", "first line")
	rec.AppendToLast("second line", "\n")
	got, _ := rec.Get("msg")
	if got != "first line\nsecond line" {
		t.Fatalf("msg = %q, want %q", got, "first line\nsecond line")
	}
}

func TestRecord_AppendToLast_NoFieldsIsNoOp(t *testing.T) {
	rec := NewRecord()
	rec.AppendToLast("text", "\n")
	if len(rec.Names()) != 0 {
		t.Fatalf("expected no fields, got %v", rec.Names())
	}
}
