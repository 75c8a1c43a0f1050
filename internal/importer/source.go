// Package importer turns third-party expense exports into a common
// trip/expense/line-item tree and reconciles the entity names in it against
// the ledger. Everything here is a pure transform; writes happen in the
// service package.
package importer

import (
	"fmt"
)

// Source identifies an input format.
type Source string

const (
	SourceCSVTemplate     Source = "csv_template"
	SourceAirplaneManager Source = "airplane_manager"
)

// Valid reports whether s is a known format.
func (s Source) Valid() bool {
	return s == SourceCSVTemplate || s == SourceAirplaneManager
}

// Severity of a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one finding from row validation. Row is 1-indexed and
// counts the header, so the first data row is row 2.
type ValidationError struct {
	Row      int      `json:"row"`
	Field    string   `json:"field"`
	Value    string   `json:"value"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (e ValidationError) String() string {
	if e.Value != "" {
		return fmt.Sprintf("row %d %s %q: %s", e.Row, e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("row %d %s: %s", e.Row, e.Field, e.Message)
}

// Row is one data row keyed by normalised header name.
type Row struct {
	Line   int               `json:"line"`
	Fields map[string]string `json:"fields"`
}

// Get returns the value of column col, or "" when absent.
func (r Row) Get(col string) string {
	return r.Fields[col]
}

// ParseResult is the outcome of the parse step. Errors block the transform.
type ParseResult struct {
	Rows     []Row
	Errors   []ValidationError
	Warnings []ValidationError
}

// Blocking reports whether the caller must stop before transforming.
func (r ParseResult) Blocking() bool {
	return len(r.Errors) > 0
}

func (r *ParseResult) fail(row int, field, value, msg string) {
	r.Errors = append(r.Errors, ValidationError{Row: row, Field: field, Value: value, Message: msg, Severity: SeverityError})
}

func (r *ParseResult) warn(row int, field, value, msg string) {
	r.Warnings = append(r.Warnings, ValidationError{Row: row, Field: field, Value: value, Message: msg, Severity: SeverityWarning})
}

// Parse validates raw CSV text in the given format.
func Parse(source Source, data []byte) (ParseResult, error) {
	switch source {
	case SourceAirplaneManager:
		return ParseAirplaneManager(data), nil
	case SourceCSVTemplate:
		return ParseTemplate(data), nil
	default:
		return ParseResult{}, fmt.Errorf("unknown import source %q", source)
	}
}

// Transform builds the preview for rows previously returned by Parse.
func Transform(source Source, rows []Row, existing Existing) (*Preview, error) {
	switch source {
	case SourceAirplaneManager:
		return TransformAirplaneManager(rows, existing), nil
	case SourceCSVTemplate:
		return TransformTemplate(rows, existing), nil
	default:
		return nil, fmt.Errorf("unknown import source %q", source)
	}
}
