// Package insts provides APEX instruction definitions.
//
// Instructions arrive pre-decoded: an opcode plus architectural register
// ids and an immediate. The package classifies each opcode by the
// functional unit that executes it and by the operands it reads and
// writes, so that every pipeline stage can switch exhaustively on Op.
//
// Usage:
//
//	inst := insts.Instruction{Op: insts.OpADD, Rd: 3, Rs1: 1, Rs2: 2}
//	fmt.Println(inst.Op.Class(), inst.Sources())
package insts

import "fmt"

// Op represents an APEX opcode.
type Op uint8

// APEX opcodes.
const (
	OpNOP Op = iota
	OpADD
	OpSUB
	OpMUL
	OpAND
	OpOR
	OpXOR
	OpADDL
	OpSUBL
	OpMOVC
	OpCMP
	OpLOAD
	OpLDR
	OpSTORE
	OpSTR
	OpBZ
	OpBNZ
	OpJUMP
	OpJAL
	OpHALT

	numOps
)

var opNames = [numOps]string{
	OpNOP:   "NOP",
	OpADD:   "ADD",
	OpSUB:   "SUB",
	OpMUL:   "MUL",
	OpAND:   "AND",
	OpOR:    "OR",
	OpXOR:   "XOR",
	OpADDL:  "ADDL",
	OpSUBL:  "SUBL",
	OpMOVC:  "MOVC",
	OpCMP:   "CMP",
	OpLOAD:  "LOAD",
	OpLDR:   "LDR",
	OpSTORE: "STORE",
	OpSTR:   "STR",
	OpBZ:    "BZ",
	OpBNZ:   "BNZ",
	OpJUMP:  "JUMP",
	OpJAL:   "JAL",
	OpHALT:  "HALT",
}

// AllOps returns every defined opcode in numeric order.
func AllOps() []Op {
	ops := make([]Op, 0, numOps)
	for op := Op(0); op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}

// String returns the assembler mnemonic of the opcode.
func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// ParseOp maps an upper-case mnemonic to its opcode. EXOR is accepted as
// an alias of XOR.
func ParseOp(name string) (Op, bool) {
	if name == "EXOR" {
		return OpXOR, true
	}
	for op := Op(0); op < numOps; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpNOP, false
}

// Class is the functional-unit class that executes an opcode.
type Class uint8

// Functional-unit classes.
const (
	// ClassNone marks opcodes that never reach a functional unit (HALT).
	ClassNone Class = iota
	// ClassInteger is the single-cycle integer unit.
	ClassInteger
	// ClassMultiply is the multi-cycle multiply unit.
	ClassMultiply
	// ClassMemory is the two-stage address/memory unit.
	ClassMemory
	// ClassBranch is the two-stage jump unit.
	ClassBranch
)

// String returns a short unit name.
func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "intu"
	case ClassMultiply:
		return "mulu"
	case ClassMemory:
		return "mem"
	case ClassBranch:
		return "jbu"
	default:
		return "none"
	}
}

// Class returns the functional-unit class for the opcode.
func (op Op) Class() Class {
	switch op {
	case OpNOP, OpADD, OpSUB, OpAND, OpOR, OpXOR, OpADDL, OpSUBL,
		OpMOVC, OpCMP, OpBZ, OpBNZ:
		return ClassInteger
	case OpMUL:
		return ClassMultiply
	case OpLOAD, OpLDR, OpSTORE, OpSTR:
		return ClassMemory
	case OpJUMP, OpJAL:
		return ClassBranch
	case OpHALT:
		return ClassNone
	}
	panic(fmt.Sprintf("insts: unclassified opcode %v", op))
}

// HasDest reports whether the opcode writes an architectural register.
func (op Op) HasDest() bool {
	switch op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpADDL, OpSUBL,
		OpMOVC, OpLOAD, OpLDR, OpJAL:
		return true
	case OpNOP, OpCMP, OpSTORE, OpSTR, OpBZ, OpBNZ, OpJUMP, OpHALT:
		return false
	}
	panic(fmt.Sprintf("insts: unclassified opcode %v", op))
}

// SetsZero reports whether the opcode updates the zero flag.
func (op Op) SetsZero() bool {
	return op == OpSUB || op == OpSUBL || op == OpCMP
}

// ReadsZero reports whether the opcode consumes the zero flag.
func (op Op) ReadsZero() bool {
	return op == OpBZ || op == OpBNZ
}

// IsControl reports whether the opcode can redirect fetch.
func (op Op) IsControl() bool {
	return op == OpBZ || op == OpBNZ || op == OpJUMP || op == OpJAL
}

// IsMemory reports whether the opcode accesses data memory.
func (op Op) IsMemory() bool {
	return op.Class() == ClassMemory
}

// IsLoad reports whether the opcode reads data memory.
func (op Op) IsLoad() bool {
	return op == OpLOAD || op == OpLDR
}

// UsesROB reports whether the opcode occupies a reorder-buffer entry.
// Memory and control ops are ordered through the ROB; everything else
// completes purely out of order.
func (op Op) UsesROB() bool {
	return op.IsMemory() || op.IsControl()
}

// MaxSources is the largest number of register sources of any opcode.
const MaxSources = 3

// Instruction is a pre-decoded APEX instruction.
type Instruction struct {
	Op  Op
	Rd  int // Destination register
	Rs1 int // First source register
	Rs2 int // Second source register
	Rs3 int // Third source register (STR only)
	Imm int // Signed literal
}

// Sources returns the architectural source registers in operand order.
// The order fixes the slot each value occupies in issue-queue entries:
// stores place the data register first.
func (i Instruction) Sources() []int {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpCMP, OpLDR:
		return []int{i.Rs1, i.Rs2}
	case OpADDL, OpSUBL, OpLOAD, OpJUMP, OpJAL:
		return []int{i.Rs1}
	case OpSTORE:
		return []int{i.Rs1, i.Rs2}
	case OpSTR:
		return []int{i.Rs1, i.Rs2, i.Rs3}
	case OpNOP, OpMOVC, OpBZ, OpBNZ, OpHALT:
		return nil
	}
	panic(fmt.Sprintf("insts: unclassified opcode %v", i.Op))
}

// String renders the instruction in assembler syntax.
func (i Instruction) String() string {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpLDR:
		return fmt.Sprintf("%v,R%d,R%d,R%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case OpADDL, OpSUBL, OpLOAD, OpJAL:
		return fmt.Sprintf("%v,R%d,R%d,#%d", i.Op, i.Rd, i.Rs1, i.Imm)
	case OpSTORE:
		return fmt.Sprintf("%v,R%d,R%d,#%d", i.Op, i.Rs1, i.Rs2, i.Imm)
	case OpSTR:
		return fmt.Sprintf("%v,R%d,R%d,R%d", i.Op, i.Rs1, i.Rs2, i.Rs3)
	case OpMOVC:
		return fmt.Sprintf("%v,R%d,#%d", i.Op, i.Rd, i.Imm)
	case OpJUMP:
		return fmt.Sprintf("%v,R%d,#%d", i.Op, i.Rs1, i.Imm)
	case OpCMP:
		return fmt.Sprintf("%v,R%d,R%d", i.Op, i.Rs1, i.Rs2)
	case OpBZ, OpBNZ:
		return fmt.Sprintf("%v,#%d", i.Op, i.Imm)
	default:
		return i.Op.String()
	}
}
