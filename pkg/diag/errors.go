// Package diag defines the structured errors reported while translating and
// bundling modules, and renders them as source excerpts.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Span is a half-open byte range in a source text.
type Span struct {
	Start int
	End   int
}

// SyntaxError reports a parse failure or a construct the translator cannot
// down-level. Line and Column are 1-based.
type SyntaxError struct {
	Message string
	Path    string
	Source  string
	Span    Span
	Line    int
	Column  int
}

// NewSyntaxError locates span inside source and builds the error.
func NewSyntaxError(source, message string, span Span) *SyntaxError {
	line, col := Locate(source, span.Start)

	return &SyntaxError{
		Message: message,
		Source:  source,
		Span:    span,
		Line:    line,
		Column:  col,
	}
}

func (e *SyntaxError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (%s:%d:%d)", e.Message, e.Path, e.Line, e.Column)
	}

	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// ClosureCaptureError reports a closure inside a loop that captures a
// per-iteration binding, which cannot survive flattening to function scope.
type ClosureCaptureError struct {
	Name string
	SyntaxError
}

func (e *ClosureCaptureError) Error() string {
	return e.SyntaxError.Error()
}

// Unwrap exposes the embedded location so errors.As finds a *SyntaxError.
func (e *ClosureCaptureError) Unwrap() error {
	return &e.SyntaxError
}

// IOError reports a module file that could not be read.
type IOError struct {
	Err  error
	Path string
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read module %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WithPath stamps path on the syntax error carried by err, if any, and
// returns err.
func WithPath(err error, path string) error {
	var capture *ClosureCaptureError
	if errors.As(err, &capture) {
		capture.Path = path

		return err
	}

	var syntax *SyntaxError
	if errors.As(err, &syntax) {
		syntax.Path = path
	}

	return err
}

// Locate returns the 1-based line and column of offset in source.
func Locate(source string, offset int) (line, column int) {
	if offset > len(source) {
		offset = len(source)
	}

	if offset < 0 {
		offset = 0
	}

	before := source[:offset]
	line = strings.Count(before, "\n") + 1
	column = offset - (strings.LastIndexByte(before, '\n') + 1) + 1

	return line, column
}

// Kind names the error class of err for metrics and logs.
func Kind(err error) string {
	var capture *ClosureCaptureError
	if errors.As(err, &capture) {
		return "ClosureCaptureError"
	}

	var syntax *SyntaxError
	if errors.As(err, &syntax) {
		return "SyntaxError"
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return "IOError"
	}

	return "error"
}
