package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/apexsim/insts"
)

// DefaultCodeBase is the address of the first APEX instruction.
const DefaultCodeBase = 4000

// InstructionSize is the byte stride between consecutive instructions.
const InstructionSize = 4

// ErrMaxInstructions is returned when the instruction limit is reached.
var ErrMaxInstructions = errors.New("max instructions reached")

// ErrInvalidPC is returned when control transfers to a misaligned or
// negative code address.
var ErrInvalidPC = errors.New("invalid program counter")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once HALT executed or the PC ran past the program.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes APEX instructions sequentially, one per step, in
// program order. It is the reference the timing core is checked against.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	program []insts.Instruction

	codeBase int

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	halted           bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithMemory sets the data memory used by the emulator.
func WithMemory(memory *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithCodeBase sets the address of the first instruction.
func WithCodeBase(base int) EmulatorOption {
	return func(e *Emulator) {
		e.codeBase = base
	}
}

// NewEmulator creates a new emulator for the given program.
func NewEmulator(program []insts.Instruction, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:  &RegFile{},
		program:  program,
		codeBase: DefaultCodeBase,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory()
	}
	e.regFile.PC = e.codeBase

	return e
}

// RegFile returns the architectural register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the data memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Halted returns true once the program has stopped.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	pc := e.regFile.PC
	offset := pc - e.codeBase
	if offset < 0 || offset%InstructionSize != 0 {
		return StepResult{Err: fmt.Errorf("pc %d: %w", pc, ErrInvalidPC)}
	}

	index := offset / InstructionSize
	if index >= len(e.program) {
		e.halted = true
		return StepResult{Halted: true}
	}

	inst := e.program[index]
	result := e.execute(inst, pc)
	if result.Err == nil {
		e.instructionCount++
	}

	return result
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

// execute performs one instruction at pc.
func (e *Emulator) execute(inst insts.Instruction, pc int) StepResult {
	var src Operands
	for i, reg := range inst.Sources() {
		src[i] = e.regFile.ReadReg(reg)
	}

	next := pc + InstructionSize

	switch inst.Op.Class() {
	case insts.ClassInteger, insts.ClassMultiply:
		r := Compute(inst, src)
		if inst.Op.HasDest() {
			e.regFile.WriteReg(inst.Rd, r.Value)
		}
		if r.SetsZero {
			e.regFile.Z = r.Zero
		}
		if BranchTaken(inst.Op, e.regFile.Z) {
			next = pc + inst.Imm
		}

	case insts.ClassMemory:
		addr := EffectiveAddress(inst, src)
		if inst.Op.IsLoad() {
			v, err := e.memory.Read(addr)
			if err != nil {
				return StepResult{Err: withPC(err, pc)}
			}
			e.regFile.WriteReg(inst.Rd, v)
		} else if err := e.memory.Write(addr, src[0]); err != nil {
			return StepResult{Err: withPC(err, pc)}
		}

	case insts.ClassBranch:
		if inst.Op == insts.OpJAL {
			e.regFile.WriteReg(inst.Rd, pc+InstructionSize)
		}
		next = src[0] + inst.Imm

	case insts.ClassNone:
		e.halted = true
		return StepResult{Halted: true}
	}

	e.regFile.PC = next
	return StepResult{}
}

// withPC fills the PC of a memory fault.
func withPC(err error, pc int) error {
	var fault *MemoryFault
	if errors.As(err, &fault) {
		fault.PC = pc
	}
	return err
}
