package cpu

import "fmt"

// State is the canonical 6502 register snapshot taken after one executed
// instruction. It is the only thing compared between two traces, so any
// log format is reduced to these five bytes first.
type State struct {
	A, X, Y uint8
	P       uint8 // status flags
	SP      uint8
}

// Equal returns true if two states are identical.
func (s State) Equal(o State) bool {
	return s == o
}

// String renders the state in the same order and labels the emulators
// print, two hex digits per register.
func (s State) String() string {
	return fmt.Sprintf("A:%02X X:%02X Y:%02X P:%02X SP:%02X", s.A, s.X, s.Y, s.P, s.SP)
}

// Field identifies one register of a State.
type Field int

const (
	FieldA Field = iota
	FieldX
	FieldY
	FieldP
	FieldSP

	NumFields = 5
)

// Fields lists every field in rendering order.
var Fields = [NumFields]Field{FieldA, FieldX, FieldY, FieldP, FieldSP}

var fieldNames = [NumFields]string{"A", "X", "Y", "P", "SP"}

// Name returns the label used when rendering the field.
func (f Field) Name() string {
	if f < 0 || int(f) >= NumFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

func (f Field) String() string { return f.Name() }

// Get returns the value of field f.
func (s State) Get(f Field) uint8 {
	switch f {
	case FieldA:
		return s.A
	case FieldX:
		return s.X
	case FieldY:
		return s.Y
	case FieldP:
		return s.P
	case FieldSP:
		return s.SP
	}
	return 0
}

// Set stores v into field f.
func (s *State) Set(f Field, v uint8) {
	switch f {
	case FieldA:
		s.A = v
	case FieldX:
		s.X = v
	case FieldY:
		s.Y = v
	case FieldP:
		s.P = v
	case FieldSP:
		s.SP = v
	}
}

// FieldMask has bit i set when Fields[i] is selected.
type FieldMask uint8

// Has reports whether f is in the mask.
func (m FieldMask) Has(f Field) bool {
	return m&(1<<uint(f)) != 0
}

// Fields returns the selected fields in rendering order.
func (m FieldMask) Fields() []Field {
	var out []Field
	for _, f := range Fields {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Diff returns the set of fields whose values differ between s and o.
// A zero mask means the states are equal.
func (s State) Diff(o State) FieldMask {
	var m FieldMask
	for _, f := range Fields {
		if s.Get(f) != o.Get(f) {
			m |= 1 << uint(f)
		}
	}
	return m
}
