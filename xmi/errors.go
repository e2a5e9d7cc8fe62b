// Package xmi implements the XMI-compatible exchange-format codec: a parser
// that materializes resources from XML documents and a deterministic
// serializer that writes them back, choosing nested or href encodings per
// feature.
package xmi

import (
	"fmt"
	"strings"
)

// Error code constants.
// X001-X049: document structure
// X050-X099: metamodel resolution
// X100-X149: values and references
const (
	ErrMalformedDocument = "X001"
	ErrUnexpectedElement = "X002"
	ErrEmptyDocument     = "X003"

	ErrUnknownNamespace = "X050"
	ErrUnknownClass     = "X051"
	ErrUnknownFeature   = "X052"
	ErrAbstractClass    = "X053"

	ErrInvalidAttribute = "X100"
	ErrInvalidHref      = "X101"
	ErrInvalidFragment  = "X102"
	ErrMultiplicity     = "X103"
	ErrNotContainment   = "X104"
	ErrDanglingRef      = "X105"
)

// Location is a position in an exchange-format document.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// ParseError is a structured exchange-format error with file/line context.
// Any ParseError aborts the parse of its document; the partially built
// resource is discarded, never registered.
type ParseError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Location.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Location.File, e.Location.Line, e.Location.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Location.File, e.Code, e.Message)
}

// ErrorList aggregates parse errors for reporting.
type ErrorList struct {
	Errors []*ParseError `json:"errors"`
}

// Add appends an error.
func (l *ErrorList) Add(e *ParseError) {
	l.Errors = append(l.Errors, e)
}

// HasErrors reports whether any error was collected.
func (l *ErrorList) HasErrors() bool { return len(l.Errors) > 0 }

// Error implements the error interface.
func (l *ErrorList) Error() string {
	if len(l.Errors) == 0 {
		return "no errors"
	}
	msgs := make([]string, len(l.Errors))
	for i, e := range l.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// lineAt computes the 1-based line and column of a byte offset.
func lineAt(data []byte, offset int64) (line, col int) {
	line, col = 1, 1
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
