package cpu

// 6502 status register bit positions.
const (
	FlagC uint8 = 0x01 // Carry
	FlagZ uint8 = 0x02 // Zero
	FlagI uint8 = 0x04 // Interrupt disable
	FlagD uint8 = 0x08 // Decimal mode
	FlagB uint8 = 0x10 // Break
	FlagU uint8 = 0x20 // Unused, reads as 1 on real hardware
	FlagV uint8 = 0x40 // Overflow
	FlagN uint8 = 0x80 // Negative
)

// flagLetters is indexed from bit 7 down to bit 0.
const flagLetters = "NV-BDIZC"

// FlagString renders p as NV-BDIZC, upper case for set bits and a dot
// for clear ones. The unused bit renders as '-' when set.
func FlagString(p uint8) string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		bit := uint8(0x80) >> uint(i)
		if p&bit != 0 {
			b[i] = flagLetters[i]
		} else {
			b[i] = '.'
		}
	}
	return string(b[:])
}

// FlagDiff returns the status bits that differ between p and q.
func FlagDiff(p, q uint8) uint8 {
	return p ^ q
}
