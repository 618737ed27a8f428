package result

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/oisee/tracecheck/pkg/compare"
	"github.com/oisee/tracecheck/pkg/cpu"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, table or json)", s)
}

// Options control rendering.
type Options struct {
	Format Format
	Color  bool

	// StrictLength counts a match with a length mismatch as a failure
	// when coloring summary rows.
	StrictLength bool
}

// Report is the outcome of comparing one named trace pair.
type Report struct {
	Reference string // reference trace name
	Candidate string // candidate trace name
	Outcome   compare.Outcome
}

// Source returns the trace name on the given side.
func (r Report) Source(side compare.Side) string {
	switch side {
	case compare.SideReference:
		return r.Reference
	case compare.SideCandidate:
		return r.Candidate
	}
	return ""
}

// Summary is a one line description of the outcome.
func (r Report) Summary() string {
	o := r.Outcome
	switch o.Kind {
	case compare.Match:
		s := fmt.Sprintf("sequences match over the first %d entries", o.Compared)
		if o.LengthMismatch() {
			s += fmt.Sprintf(" (length mismatch: reference has %d, candidate has %d)", o.RefLen, o.CandLen)
		}
		return s
	case compare.Divergence:
		return fmt.Sprintf("divergence at line %d (%s)", o.Line, fieldList(o.Diff()))
	case compare.ParseFailure:
		return fmt.Sprintf("parse error in %s at line %d", r.Source(o.Side), o.Line)
	case compare.ReadFailure:
		return fmt.Sprintf("read error in %s at line %d", r.Source(o.Side), o.Line)
	}
	return o.Kind.String()
}

// Write renders r to w.
func Write(w io.Writer, r Report, opts Options) error {
	switch opts.Format {
	case FormatTable:
		return writeTable(w, r, newPalette(opts.Color))
	case FormatJSON:
		return writeJSON(w, r)
	case FormatText, "":
		return writeText(w, r, newPalette(opts.Color))
	}
	return fmt.Errorf("unknown report format %q", opts.Format)
}

type palette struct {
	ok, bad, warn, mark *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		mark: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.ok, p.bad, p.warn, p.mark} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func writeText(w io.Writer, r Report, p palette) error {
	o := r.Outcome
	var b strings.Builder

	switch o.Kind {
	case compare.Match:
		b.WriteString(p.ok.Sprintf("sequences match over the first %d entries", o.Compared))
		b.WriteByte('\n')
		if o.LengthMismatch() {
			b.WriteString(p.warn.Sprintf("note: length mismatch: %s has %d entries, %s has %d",
				r.Reference, o.RefLen, r.Candidate, o.CandLen))
			b.WriteByte('\n')
		}

	case compare.Divergence:
		diff := o.Diff()
		labels := []string{"reference (" + r.Reference + "):", "candidate (" + r.Candidate + "):"}
		width := max(len(labels[0]), len(labels[1]))

		b.WriteString(p.bad.Sprintf("divergence at line %d", o.Line))
		b.WriteByte('\n')
		fmt.Fprintf(&b, "  %-*s  %s\n", width, labels[0], highlight(o.Reference, diff, p))
		fmt.Fprintf(&b, "  %-*s  %s\n", width, labels[1], highlight(o.Candidate, diff, p))
		fmt.Fprintf(&b, "  %-*s  %s\n", width, "", p.mark.Sprint(Marker(diff)))
		if diff.Has(cpu.FieldP) {
			fmt.Fprintf(&b, "  %-*s  %s -> %s\n", width, "flags:",
				cpu.FlagString(o.Reference.P), cpu.FlagString(o.Candidate.P))
			m := FlagMarker(o.Reference.P, o.Candidate.P)
			fmt.Fprintf(&b, "  %-*s  %s\n", width, "", p.mark.Sprint(strings.TrimRight(m+"    "+m, " ")))
		}
		if o.Compared > 0 {
			fmt.Fprintf(&b, "  %d entries matched before the divergence\n", o.Compared)
		}

	case compare.ParseFailure, compare.ReadFailure:
		b.WriteString(p.bad.Sprint(r.Summary()))
		b.WriteByte('\n')
		fmt.Fprintf(&b, "  %v\n", o.Err)
		if pe := o.ParseError(); pe != nil {
			fmt.Fprintf(&b, "  raw: %q\n", pe.Raw)
		}
		fmt.Fprintf(&b, "  %d entries matched before the error\n", o.Compared)

	default:
		return fmt.Errorf("unknown outcome kind %v", o.Kind)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// token renders one field the way cpu.State.String does.
func token(s cpu.State, f cpu.Field) string {
	return fmt.Sprintf("%s:%02X", f.Name(), s.Get(f))
}

func highlight(s cpu.State, diff cpu.FieldMask, p palette) string {
	parts := make([]string, 0, cpu.NumFields)
	for _, f := range cpu.Fields {
		t := token(s, f)
		if diff.Has(f) {
			t = p.mark.Sprint(t)
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// Marker returns a line of carets aligned under the fields of
// cpu.State.String that are in diff.
func Marker(diff cpu.FieldMask) string {
	var b strings.Builder
	for i, f := range cpu.Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		ch := " "
		if diff.Has(f) {
			ch = "^"
		}
		b.WriteString(strings.Repeat(ch, len(token(cpu.State{}, f))))
	}
	return strings.TrimRight(b.String(), " ")
}

// FlagMarker returns carets under the NV-BDIZC letters of
// cpu.FlagString that differ between p and q.
func FlagMarker(p, q uint8) string {
	diff := cpu.FlagDiff(p, q)
	var b [8]byte
	for i := range b {
		b[i] = ' '
		if diff&(0x80>>uint(i)) != 0 {
			b[i] = '^'
		}
	}
	return string(b[:])
}

func fieldList(m cpu.FieldMask) string {
	fields := m.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	return strings.Join(names, ", ")
}
