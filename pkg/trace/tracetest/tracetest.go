// Package tracetest builds trace log fixtures in both built-in layouts.
package tracetest

import (
	"fmt"
	"strings"

	"github.com/oisee/tracecheck/pkg/cpu"
)

// ReferenceLine renders s the way nestest.log does. pc only varies the
// line prefix; the parser ignores it.
func ReferenceLine(pc uint16, s cpu.State) string {
	return fmt.Sprintf("%04X  %-8s  %-32sA:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:  0, 21 CYC:7",
		pc, "EA", "NOP", s.A, s.X, s.Y, s.P, s.SP)
}

// CandidateLine renders s the way the emulator logs it, with fields
// padded to two characters by spaces.
func CandidateLine(pc uint16, s cpu.State) string {
	return fmt.Sprintf("[PC: %04X] OPCODE EA | A:%2X X:%2X Y:%2X P:%2X SP:%2X | NOP",
		pc, s.A, s.X, s.Y, s.P, s.SP)
}

// Reference renders a whole reference trace, one line per state.
func Reference(states []cpu.State) string {
	return render(states, ReferenceLine)
}

// Candidate renders a whole candidate trace, one line per state.
func Candidate(states []cpu.State) string {
	return render(states, CandidateLine)
}

func render(states []cpu.State, line func(uint16, cpu.State) string) string {
	var sb strings.Builder
	for i, s := range states {
		sb.WriteString(line(0xC000+uint16(i), s))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Sequence returns n distinct, deterministic states.
func Sequence(n int) []cpu.State {
	out := make([]cpu.State, n)
	for i := range out {
		out[i] = cpu.State{
			A:  uint8(i),
			X:  uint8(i * 3),
			Y:  uint8(i * 7),
			P:  0x24 | uint8(i&0x03),
			SP: 0xFD - uint8(i%16),
		}
	}
	return out
}
