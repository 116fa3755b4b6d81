package benchmarks

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets one scheduling characteristic of the core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		multiplyChain(),
		memorySequential(),
		branchLoop(),
		functionCalls(),
		mixedOperations(),
		matrixMultiply2x2(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick
// validation: a loop, a matrix multiply and call-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		branchLoop(),
		matrixMultiply2x2(),
		functionCalls(),
	}
}

// 1. Arithmetic Sequential - five independent increment streams
func arithmeticSequential() Benchmark {
	var program []insts.Instruction
	for i := 0; i < 4; i++ {
		for r := 0; r < 5; r++ {
			program = append(program, addl(r, r, 1))
		}
	}
	program = append(program, halt())

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 ADDLs over 5 registers - measures INTU throughput",
		Program:      program,
		ExpectedRegs: map[int]int{0: 4, 1: 4, 2: 4, 3: 4, 4: 4},
	}
}

// 2. Dependency Chain - every op waits for the previous broadcast
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDLs (R0 = R0 + 1) - measures forwarding latency",
		Program:      buildDependencyChain(20),
		ExpectedRegs: map[int]int{0: 20},
	}
}

func buildDependencyChain(n int) []insts.Instruction {
	program := make([]insts.Instruction, 0, n+1)
	for i := 0; i < n; i++ {
		program = append(program, addl(0, 0, 1))
	}
	return append(program, halt())
}

// 3. Multiply Chain - serialized on the non-pipelined MULU
func multiplyChain() Benchmark {
	program := []insts.Instruction{movc(1, 1), movc(2, 2)}
	for i := 0; i < 8; i++ {
		program = append(program, rrr(insts.OpMUL, 1, 1, 2))
	}
	program = append(program, halt())

	return Benchmark{
		Name:         "multiply_chain",
		Description:  "8 dependent MULs - measures multiply latency",
		Program:      program,
		ExpectedRegs: map[int]int{1: 256},
	}
}

// 4. Memory Sequential - stores then loads through the in-order memory path
func memorySequential() Benchmark {
	program := []insts.Instruction{movc(15, 100), movc(3, 0)}
	for i := 0; i < 8; i++ {
		program = append(program,
			movc(1, i+1),
			insts.Instruction{Op: insts.OpSTORE, Rs1: 1, Rs2: 15, Imm: i})
	}
	for i := 0; i < 8; i++ {
		program = append(program,
			insts.Instruction{Op: insts.OpLOAD, Rd: 2, Rs1: 15, Imm: i},
			rrr(insts.OpADD, 3, 3, 2))
	}
	program = append(program, halt())

	return Benchmark{
		Name:         "memory_sequential",
		Description:  "8 STOREs then 8 LOADs summed - measures memory ordering cost",
		Program:      program,
		ExpectedRegs: map[int]int{3: 36},
	}
}

// 5. Branch Loop - a counted loop closed by a taken BNZ
func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "10-iteration counted loop - measures taken-branch redirect cost",
		Program: []insts.Instruction{
			movc(1, 10),
			movc(2, 0),
			addl(2, 2, 2),
			{Op: insts.OpSUBL, Rd: 1, Rs1: 1, Imm: 1},
			{Op: insts.OpBNZ, Imm: -8},
			halt(),
		},
		ExpectedRegs: map[int]int{1: 0, 2: 20},
	}
}

// 6. Function Calls - JAL into a leaf and JUMP back through the link
func functionCalls() Benchmark {
	const leaf = 6 * emu.InstructionSize
	return Benchmark{
		Name:        "function_calls",
		Description: "3 JAL/JUMP call-return pairs - measures JBU redirect cost",
		Program: []insts.Instruction{
			movc(14, emu.DefaultCodeBase),
			{Op: insts.OpJAL, Rd: 8, Rs1: 14, Imm: leaf},
			{Op: insts.OpJAL, Rd: 8, Rs1: 14, Imm: leaf},
			{Op: insts.OpJAL, Rd: 8, Rs1: 14, Imm: leaf},
			halt(),
			{Op: insts.OpNOP},
			addl(1, 1, 1),
			{Op: insts.OpJUMP, Rs1: 8, Imm: 0},
		},
		ExpectedRegs: map[int]int{1: 3},
	}
}

// 7. Mixed Operations - ALU, multiply, memory and a forward branch
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "Interleaved ALU, MUL, memory and branch - measures overlap",
		Program: []insts.Instruction{
			movc(15, 200),
			movc(1, 3),
			movc(2, 4),
			rrr(insts.OpMUL, 3, 1, 2),
			rrr(insts.OpADD, 4, 1, 2),
			{Op: insts.OpSTORE, Rs1: 3, Rs2: 15, Imm: 0},
			rrr(insts.OpXOR, 5, 1, 2),
			{Op: insts.OpLOAD, Rd: 6, Rs1: 15, Imm: 0},
			{Op: insts.OpCMP, Rs1: 6, Rs2: 3},
			{Op: insts.OpBZ, Imm: 8},
			movc(7, 99),
			rrr(insts.OpSUB, 8, 6, 4),
			halt(),
		},
		ExpectedRegs: map[int]int{3: 12, 4: 7, 5: 7, 6: 12, 7: 0, 8: 5},
	}
}

// 8. Matrix Multiply 2x2 - C = A x B with A and B preloaded
func matrixMultiply2x2() Benchmark {
	const a, b, c = 100, 104, 108

	program := []insts.Instruction{movc(15, 0)}
	for i := 0; i < 4; i++ {
		program = append(program,
			insts.Instruction{Op: insts.OpLOAD, Rd: 1 + i, Rs1: 15, Imm: a + i},
			insts.Instruction{Op: insts.OpLOAD, Rd: 5 + i, Rs1: 15, Imm: b + i})
	}
	// cij = ai0*b0j + ai1*b1j, landing in R9..R12.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			dst := 9 + 2*i + j
			program = append(program,
				rrr(insts.OpMUL, 13, 1+2*i, 5+j),
				rrr(insts.OpMUL, 14, 2+2*i, 7+j),
				rrr(insts.OpADD, dst, 13, 14),
				insts.Instruction{Op: insts.OpSTORE, Rs1: dst, Rs2: 15, Imm: c + 2*i + j})
		}
	}
	program = append(program, halt())

	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "2x2 integer matrix multiply - measures MULU pressure with loads",
		Setup: func(memory *emu.Memory) {
			for i, v := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
				_ = memory.Write(a+i, v)
			}
		},
		Program:      program,
		ExpectedRegs: map[int]int{9: 19, 10: 22, 11: 43, 12: 50},
	}
}

// Helper functions for building APEX programs

func movc(rd, imm int) insts.Instruction {
	return insts.Instruction{Op: insts.OpMOVC, Rd: rd, Imm: imm}
}

func addl(rd, rs1, imm int) insts.Instruction {
	return insts.Instruction{Op: insts.OpADDL, Rd: rd, Rs1: rs1, Imm: imm}
}

func rrr(op insts.Op, rd, rs1, rs2 int) insts.Instruction {
	return insts.Instruction{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}
}

func halt() insts.Instruction {
	return insts.Instruction{Op: insts.OpHALT}
}
