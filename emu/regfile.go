// Package emu provides functional APEX emulation.
//
// It holds the pieces shared by the sequential reference interpreter and
// the out-of-order timing core: data memory, the architectural register
// file and the integer ALU.
package emu

// NumArchRegs is the number of APEX architectural registers (R0-R15).
const NumArchRegs = 16

// RegFile represents the APEX architectural register file.
type RegFile struct {
	// R holds the general-purpose registers R0-R15.
	R [NumArchRegs]int

	// PC is the program counter.
	PC int

	// Z is the zero flag consumed by BZ and BNZ.
	Z bool
}

// ReadReg reads a register value. Out-of-range ids read as 0.
func (r *RegFile) ReadReg(reg int) int {
	if reg < 0 || reg >= NumArchRegs {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to out-of-range ids are ignored.
func (r *RegFile) WriteReg(reg int, value int) {
	if reg < 0 || reg >= NumArchRegs {
		return
	}
	r.R[reg] = value
}
