package trace

import (
	"errors"
	"fmt"
)

// Causes of a ParseError, matchable with errors.Is.
var (
	ErrBlankLine  = errors.New("blank line")
	ErrShortLine  = errors.New("line too short")
	ErrBadHex     = errors.New("invalid hex field")
	ErrOutOfRange = errors.New("value out of byte range")
)

// ParseError reports a trace line that could not be decoded into a
// cpu.State. Source and Line are filled in by Reader; ParseLine alone
// leaves them empty.
type ParseError struct {
	Source string // trace name, usually the file path
	Line   int    // 1-based, 0 if unknown
	Raw    string // the offending line
	Field  string // register label, empty when the whole line is at fault
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("field %s: %s", e.Field, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Source != "" && e.Line > 0:
		msg = fmt.Sprintf("%s:%d: %s", e.Source, e.Line, msg)
	case e.Line > 0:
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return fmt.Sprintf("%s (line %q)", msg, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }
