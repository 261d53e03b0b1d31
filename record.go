package logwatch

import "github.com/clarabennett2626/logwatch/internal/recparse"

// Record is a parsed log entry: an ordered field-name -> value mapping.
// A missing capture group is represented by the field's absence, never
// an empty string. Records are immutable once delivered to a Reader;
// only the retention engine may still be appending continuation text
// onto a record that has not yet been emitted.
type Record = recparse.Record

// NewRecord returns an empty Record, exported mainly so a custom parse
// function (Config.Func) can build one without importing an internal
// package.
func NewRecord() *Record { return recparse.NewRecord() }

// ParseError describes why a raw line could not be turned into a
// Record. It is distinct from an I/O error raised by the source
// adapter.
type ParseError = recparse.ParseError

// Schema is a minimal structural validator for structured-document mode
// (type checks, required properties, per-property sub-schemas).
type Schema = recparse.Schema

// Parse error kinds, mirroring the taxonomy in the package's design
// document.
const (
	PatternViolation   = recparse.KindPatternViolation
	MalformedDocument  = recparse.KindMalformedDocument
	SchemaViolation    = recparse.KindSchemaViolation
	CustomParseFailure = recparse.KindCustomParseFailure
)
