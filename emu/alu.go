package emu

import (
	"fmt"

	"github.com/sarchlab/apexsim/insts"
)

// Operands holds source values in the slot order of insts.Instruction.Sources.
type Operands [insts.MaxSources]int

// ALUResult is the outcome of an integer-class operation.
type ALUResult struct {
	// Value is the destination value (meaningless when the op has no dest).
	Value int
	// Zero is the new zero flag; valid only when SetsZero is true.
	Zero bool
	// SetsZero is true when the op updates the zero flag.
	SetsZero bool
}

// Compute evaluates an integer or multiply opcode on its source operands.
func Compute(inst insts.Instruction, src Operands) ALUResult {
	var r ALUResult

	switch inst.Op {
	case insts.OpADD:
		r.Value = src[0] + src[1]
	case insts.OpSUB:
		r.Value = src[0] - src[1]
		r.SetsZero, r.Zero = true, r.Value == 0
	case insts.OpMUL:
		r.Value = src[0] * src[1]
	case insts.OpAND:
		r.Value = src[0] & src[1]
	case insts.OpOR:
		r.Value = src[0] | src[1]
	case insts.OpXOR:
		r.Value = src[0] ^ src[1]
	case insts.OpADDL:
		r.Value = src[0] + inst.Imm
	case insts.OpSUBL:
		r.Value = src[0] - inst.Imm
		r.SetsZero, r.Zero = true, r.Value == 0
	case insts.OpMOVC:
		r.Value = inst.Imm
	case insts.OpCMP:
		r.SetsZero, r.Zero = true, src[0] == src[1]
	case insts.OpNOP, insts.OpBZ, insts.OpBNZ:
		// No value.
	default:
		panic(fmt.Sprintf("emu: %v is not an ALU opcode", inst.Op))
	}

	return r
}

// EffectiveAddress computes the data address of a memory opcode.
func EffectiveAddress(inst insts.Instruction, src Operands) int {
	switch inst.Op {
	case insts.OpLOAD:
		return src[0] + inst.Imm
	case insts.OpLDR:
		return src[0] + src[1]
	case insts.OpSTORE:
		return src[1] + inst.Imm
	case insts.OpSTR:
		return src[1] + src[2]
	}
	panic(fmt.Sprintf("emu: %v is not a memory opcode", inst.Op))
}

// BranchTaken reports whether a conditional branch is taken for flag z.
func BranchTaken(op insts.Op, z bool) bool {
	switch op {
	case insts.OpBZ:
		return z
	case insts.OpBNZ:
		return !z
	}
	return false
}
