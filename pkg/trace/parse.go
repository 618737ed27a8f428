// Package trace turns fixed-column CPU trace logs into sequences of
// cpu.State.
package trace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oisee/tracecheck/pkg/cpu"
	"github.com/oisee/tracecheck/pkg/layout"
)

// ParseLine decodes the five register fields of line according to l.
// Every field must be a hex numeral that fits in a byte; anything else,
// including a blank line, is a *ParseError. Columns are byte offsets,
// trace logs being plain ASCII.
func ParseLine(line string, l layout.Layout) (cpu.State, error) {
	line = strings.TrimSuffix(line, "\r")

	if strings.TrimSpace(line) == "" {
		return cpu.State{}, &ParseError{Raw: line, Err: ErrBlankLine}
	}
	if need := l.MinWidth(); len(line) < need {
		return cpu.State{}, &ParseError{
			Raw:    line,
			Err:    ErrShortLine,
			Detail: fmt.Sprintf("layout %s needs %d columns, got %d", l.Name, need, len(line)),
		}
	}

	var s cpu.State
	for _, f := range cpu.Fields {
		col := l.Column(f)
		text := line[col.Start:col.End]
		if l.Trim {
			text = strings.TrimSpace(text)
		}
		v, err := parseByte(text)
		if err != nil {
			return cpu.State{}, &ParseError{
				Raw:    line,
				Field:  f.Name(),
				Err:    err,
				Detail: fmt.Sprintf("%q at %s", text, col),
			}
		}
		s.Set(f, v)
	}
	return s, nil
}

func parseByte(text string) (uint8, error) {
	if text == "" {
		return 0, ErrBadHex
	}
	v, err := strconv.ParseUint(text, 16, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, ErrOutOfRange
		}
		return 0, ErrBadHex
	}
	if v > 0xFF {
		return 0, ErrOutOfRange
	}
	return uint8(v), nil
}
