package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/oisee/tracecheck/pkg/cpu"
	"github.com/oisee/tracecheck/pkg/layout"
)

// maxLineSize bounds a single trace line. Real traces stay well under
// 200 bytes; this only guards against reading a binary file as a trace.
const maxLineSize = 1 << 20

// Reader yields one cpu.State per line of a trace, in line order. It
// reads lazily, so a comparison that stops early never touches the rest
// of the file.
type Reader struct {
	name    string
	layout  layout.Layout
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewReader reads a trace from r using layout l. name identifies the
// trace in errors.
func NewReader(r io.Reader, name string, l layout.Layout) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Reader{name: name, layout: l, scanner: sc}
}

// Name returns the trace name given to NewReader.
func (r *Reader) Name() string { return r.name }

// Layout returns the layout lines are decoded with.
func (r *Reader) Layout() layout.Layout { return r.layout }

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }

// Next returns the state on the next line. It returns io.EOF after the
// last line and a *ParseError for a malformed one. Once an error is
// returned every later call returns it again.
func (r *Reader) Next() (cpu.State, error) {
	if r.err != nil {
		return cpu.State{}, r.err
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = fmt.Errorf("%s: read line %d: %w", r.name, r.line+1, err)
		} else {
			r.err = io.EOF
		}
		return cpu.State{}, r.err
	}
	r.line++

	s, err := ParseLine(r.scanner.Text(), r.layout)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Source = r.name
			pe.Line = r.line
		}
		r.err = err
		return cpu.State{}, err
	}
	return s, nil
}

// ReadAll drains r into a slice.
func ReadAll(r *Reader) ([]cpu.State, error) {
	var states []cpu.State
	for {
		s, err := r.Next()
		if err == io.EOF {
			return states, nil
		}
		if err != nil {
			return states, err
		}
		states = append(states, s)
	}
}
