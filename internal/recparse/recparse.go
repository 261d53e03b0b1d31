// Package recparse converts a single complete log line into a structured
// Record using one of three mutually exclusive strategies: a regular
// expression with named capture groups, a structured (JSON) document
// optionally checked against a schema, or a caller-supplied function.
package recparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/exp/maps"
)

// Kind identifies the category of a ParseError.
type Kind int

const (
	// KindPatternViolation means a line did not match the configured
	// capture pattern.
	KindPatternViolation Kind = iota
	// KindMalformedDocument means a structured-document line failed to
	// decode.
	KindMalformedDocument
	// KindSchemaViolation means a decoded document failed schema
	// validation.
	KindSchemaViolation
	// KindCustomParseFailure means the caller-supplied function panicked
	// or otherwise failed.
	KindCustomParseFailure
)

func (k Kind) String() string {
	switch k {
	case KindPatternViolation:
		return "pattern-violation"
	case KindMalformedDocument:
		return "malformed-document"
	case KindSchemaViolation:
		return "schema-violation"
	case KindCustomParseFailure:
		return "custom-parse-failure"
	default:
		return "unknown"
	}
}

// ParseError describes why a raw line could not be turned into a Record.
// It is distinct from an I/O error raised by the source adapter.
type ParseError struct {
	Kind    Kind
	Message string
	Line    string
	Detail  []string // e.g. schema validator findings
}

func (e *ParseError) Error() string {
	if len(e.Detail) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Detail, "; "))
}

// Record is a parsed log entry: an ordered field-name -> value mapping.
// Ordering is insertion order, used to identify the "last field" the
// retention engine may append continuation text onto. A missing capture
// group is represented by the field's absence, never an empty string.
type Record struct {
	order  []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set assigns a field, appending it to the insertion order if new.
func (r *Record) Set(name string, v any) {
	if _, ok := r.values[name]; !ok {
		r.order = append(r.order, name)
	}
	r.values[name] = v
}

// Get returns a field's value and whether it is present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether a field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Names returns field names in insertion order.
func (r *Record) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// LastField returns the name of the most recently inserted field.
func (r *Record) LastField() (string, bool) {
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[len(r.order)-1], true
}

// AppendToLast concatenates text onto the string value of the last field,
// joined by sep. If the last field's value is not a string it is
// stringified first. Used by the retention engine to glue continuation
// lines onto a held record.
func (r *Record) AppendToLast(text, sep string) {
	name, ok := r.LastField()
	if !ok {
		return
	}
	cur, _ := r.values[name]
	s, ok := cur.(string)
	if !ok {
		s = fmt.Sprintf("%v", cur)
	}
	r.values[name] = s + sep + text
}

// Parser converts one complete, already-trimmed-of-pure-whitespace line
// into a Record, or reports why it could not.
type Parser interface {
	Parse(line string) (*Record, *ParseError)
}

// Config selects exactly one of the three parsing strategies.
type Config struct {
	// Pattern + FieldNames selects pattern mode.
	Pattern    *regexp.Regexp
	FieldNames []string

	// JSON selects structured-document mode. Schema is optional.
	JSON   bool
	Schema *Schema

	// Func selects custom mode. Returning (nil, nil) means "ignore this
	// line".
	Func func(line string) (*Record, error)
}

// NewParser validates a Config and returns the concrete parser it
// selects. Ambiguous or missing configuration fails construction
// synchronously, per the "unsupported method" contract.
func NewParser(cfg Config) (Parser, error) {
	modes := 0
	if cfg.Pattern != nil {
		modes++
	}
	if cfg.JSON {
		modes++
	}
	if cfg.Func != nil {
		modes++
	}
	switch modes {
	case 0:
		return nil, fmt.Errorf("recparse: unsupported method: no parsing strategy configured")
	case 1:
		// fallthrough to selection below
	default:
		return nil, fmt.Errorf("recparse: unsupported method: more than one parsing strategy configured")
	}

	switch {
	case cfg.Pattern != nil:
		if len(cfg.FieldNames) != cfg.Pattern.NumSubexp() {
			return nil, fmt.Errorf("recparse: unsupported method: pattern has %d capture groups but %d field names were given", cfg.Pattern.NumSubexp(), len(cfg.FieldNames))
		}
		return &patternParser{pattern: cfg.Pattern, fieldNames: cfg.FieldNames}, nil
	case cfg.JSON:
		return &jsonParser{schema: cfg.Schema}, nil
	default:
		return &funcParser{fn: cfg.Func}, nil
	}
}

// IsPatternMode reports whether cfg selects the pattern strategy, used
// by the caller to decide whether retention's "hold the last record"
// policy and allowPatternViolations apply.
func (cfg Config) IsPatternMode() bool { return cfg.Pattern != nil }

type patternParser struct {
	pattern    *regexp.Regexp
	fieldNames []string
}

func (p *patternParser) Parse(line string) (*Record, *ParseError) {
	trimmed := strings.TrimSpace(line)
	m := p.pattern.FindStringSubmatchIndex(trimmed)
	if m == nil {
		return nil, &ParseError{
			Kind:    KindPatternViolation,
			Message: "line does not match configured pattern",
			Line:    line,
		}
	}
	rec := NewRecord()
	for i, name := range p.fieldNames {
		lo, hi := m[2*(i+1)], m[2*(i+1)+1]
		if lo < 0 || hi < 0 {
			// Capture group did not participate in the match.
			continue
		}
		rec.Set(name, trimmed[lo:hi])
	}
	return rec, nil
}

type jsonParser struct {
	schema *Schema
}

func (p *jsonParser) Parse(line string) (*Record, *ParseError) {
	trimmed := strings.TrimSpace(line)
	var decoded any
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, &ParseError{
			Kind:    KindMalformedDocument,
			Message: fmt.Sprintf("invalid JSON document: %v", err),
			Line:    line,
		}
	}
	if p.schema != nil {
		if findings := p.schema.Validate(decoded); len(findings) > 0 {
			return nil, &ParseError{
				Kind:    KindSchemaViolation,
				Message: "document failed schema validation",
				Line:    line,
				Detail:  findings,
			}
		}
	}
	rec := NewRecord()
	obj, ok := decoded.(map[string]any)
	if !ok {
		// A scalar/array top-level document: expose it under a single
		// synthetic field rather than refuse it outright.
		rec.Set("value", decoded)
		return rec, nil
	}
	for _, k := range sortedKeys(obj) {
		rec.Set(k, obj[k])
	}
	return rec, nil
}

type funcParser struct {
	fn func(line string) (*Record, error)
}

func (p *funcParser) Parse(line string) (*Record, *ParseError) {
	rec, err := func() (r *Record, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return p.fn(line)
	}()
	if err != nil {
		return nil, &ParseError{
			Kind:    KindCustomParseFailure,
			Message: err.Error(),
			Line:    line,
		}
	}
	if rec == nil {
		return nil, nil // ignore this line
	}
	return rec, nil
}

func sortedKeys(m map[string]any) []string {
	keys := maps.Keys(m)
	// Stable, deterministic ordering; field order has no defined
	// semantics for JSON documents so lexical order keeps tests
	// reproducible without depending on Go's randomized map iteration.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
