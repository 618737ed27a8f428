// Package compare walks two traces in lockstep and finds the first line
// where they disagree.
package compare

import (
	"errors"
	"fmt"
	"io"

	"github.com/oisee/tracecheck/pkg/cpu"
	"github.com/oisee/tracecheck/pkg/trace"
)

// Sequence yields states in execution order and io.EOF at the end.
// *trace.Reader implements it.
type Sequence interface {
	Next() (cpu.State, error)
}

// Slice adapts an in-memory trace to Sequence.
type Slice struct {
	states []cpu.State
	pos    int
}

// NewSlice returns a Sequence over states. The slice is not copied or
// modified.
func NewSlice(states []cpu.State) *Slice {
	return &Slice{states: states}
}

func (s *Slice) Next() (cpu.State, error) {
	if s.pos >= len(s.states) {
		return cpu.State{}, io.EOF
	}
	st := s.states[s.pos]
	s.pos++
	return st, nil
}

// Kind tags an Outcome.
type Kind int

const (
	Match        Kind = iota // no divergence over the common prefix
	Divergence               // states differ at Line
	ParseFailure             // a line could not be decoded, see Err
	ReadFailure              // the underlying stream failed, see Err
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case Divergence:
		return "divergence"
	case ParseFailure:
		return "parse-failure"
	case ReadFailure:
		return "read-failure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Side names the trace an error came from.
type Side int

const (
	SideNone Side = iota
	SideReference
	SideCandidate
)

func (s Side) String() string {
	switch s {
	case SideReference:
		return "reference"
	case SideCandidate:
		return "candidate"
	}
	return "none"
}

// Outcome is the result of one comparison.
type Outcome struct {
	Kind Kind

	// Compared is the number of leading entries found equal.
	Compared int

	// Line is the 1-based line of the divergence or of the failure.
	Line int

	// Reference and Candidate hold the differing states for Divergence.
	Reference cpu.State
	Candidate cpu.State

	// RefLen and CandLen are the total entry counts. They are only
	// meaningful for Match, the only kind that reads both traces to the end.
	RefLen  int
	CandLen int

	// Side and Err describe a ParseFailure or ReadFailure.
	Side Side
	Err  error
}

// LengthMismatch reports whether a matching comparison found one trace
// longer than the other. It never turns a Match into a failure.
func (o Outcome) LengthMismatch() bool {
	return o.Kind == Match && o.RefLen != o.CandLen
}

// Diff returns the fields that differ at a divergence.
func (o Outcome) Diff() cpu.FieldMask {
	if o.Kind != Divergence {
		return 0
	}
	return o.Reference.Diff(o.Candidate)
}

// ParseError returns the parse error behind a ParseFailure, or nil.
func (o Outcome) ParseError() *trace.ParseError {
	var pe *trace.ParseError
	if errors.As(o.Err, &pe) {
		return pe
	}
	return nil
}

// Compare scans ref and cand position by position and stops at the first
// pair of unequal states. Alignment is strictly by index: an inserted or
// dropped line shows up as a divergence from that point on.
//
// When the common prefix matches, the longer trace is read to its end so
// the length difference can be reported; its extra lines are still
// decoded, and a malformed one is a ParseFailure.
func Compare(ref, cand Sequence) Outcome {
	var out Outcome
	for {
		line := out.Compared + 1

		r, rerr := ref.Next()
		if rerr != nil && rerr != io.EOF {
			return failure(out, line, SideReference, rerr)
		}
		c, cerr := cand.Next()
		if cerr != nil && cerr != io.EOF {
			return failure(out, line, SideCandidate, cerr)
		}

		switch {
		case rerr == io.EOF && cerr == io.EOF:
			out.Kind = Match
			out.RefLen = out.Compared
			out.CandLen = out.Compared
			return out
		case rerr == io.EOF:
			return drain(out, cand, SideCandidate)
		case cerr == io.EOF:
			return drain(out, ref, SideReference)
		}

		if !r.Equal(c) {
			out.Kind = Divergence
			out.Line = line
			out.Reference = r
			out.Candidate = c
			return out
		}
		out.Compared++
	}
}

// drain counts what is left of the longer sequence, which has already
// yielded one state past the common prefix.
func drain(out Outcome, seq Sequence, side Side) Outcome {
	n := out.Compared + 1
	for {
		_, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return failure(out, n+1, side, err)
		}
		n++
	}
	out.Kind = Match
	if side == SideReference {
		out.RefLen, out.CandLen = n, out.Compared
	} else {
		out.RefLen, out.CandLen = out.Compared, n
	}
	return out
}

func failure(out Outcome, line int, side Side, err error) Outcome {
	out.Kind = ReadFailure
	out.Side = side
	out.Line = line
	out.Err = err
	out.RefLen, out.CandLen = 0, 0
	var pe *trace.ParseError
	if errors.As(err, &pe) {
		out.Kind = ParseFailure
		if pe.Line > 0 {
			out.Line = pe.Line
		}
	}
	return out
}

// Slices compares two in-memory traces.
func Slices(ref, cand []cpu.State) Outcome {
	return Compare(NewSlice(ref), NewSlice(cand))
}

// Passed reports whether the outcome should count as a successful run.
// With strictLength a length mismatch fails the run as well.
func (o Outcome) Passed(strictLength bool) bool {
	if o.Kind != Match {
		return false
	}
	return !strictLength || !o.LengthMismatch()
}
