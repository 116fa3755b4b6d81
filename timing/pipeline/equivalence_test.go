package pipeline_test

import (
	"fmt"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/cache"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

const (
	baseReg  = 15 // data base address, never written
	codeReg  = 14 // code base, target of JAL
	indexReg = 13 // small index for LDR and STR
	linkReg  = 8
)

// randomProgram builds a terminating program over R0-R7. Branches and
// jumps only go forward, and every memory address stays in [100, 140).
func randomProgram(rng *rand.Rand, n int) []insts.Instruction {
	program := []insts.Instruction{
		movc(baseReg, 100),
		movc(codeReg, emu.DefaultCodeBase),
		movc(indexReg, 5),
	}
	for r := 0; r < 8; r++ {
		program = append(program, movc(r, rng.Intn(21)-10))
	}

	reg := func() int { return rng.Intn(8) }
	start := len(program)
	end := start + n // index of the final HALT

	for i := start; i < end; i++ {
		// Forward skip of one to three instructions, capped at HALT.
		skip := 1 + rng.Intn(3)
		if i+skip > end {
			skip = end - i
		}

		var inst insts.Instruction
		switch rng.Intn(12) {
		case 0, 1:
			ops := []insts.Op{insts.OpADD, insts.OpSUB, insts.OpAND, insts.OpOR, insts.OpXOR}
			inst = alu(ops[rng.Intn(len(ops))], reg(), reg(), reg())
		case 2:
			inst = alu(insts.OpMUL, reg(), reg(), reg())
		case 3:
			op := insts.OpADDL
			if rng.Intn(2) == 0 {
				op = insts.OpSUBL
			}
			inst = insts.Instruction{Op: op, Rd: reg(), Rs1: reg(), Imm: rng.Intn(9) - 4}
		case 4:
			inst = movc(reg(), rng.Intn(41)-20)
		case 5:
			inst = insts.Instruction{Op: insts.OpCMP, Rs1: reg(), Rs2: reg()}
		case 6:
			inst = insts.Instruction{Op: insts.OpLOAD, Rd: reg(), Rs1: baseReg, Imm: rng.Intn(32)}
		case 7:
			inst = insts.Instruction{Op: insts.OpSTORE, Rs1: reg(), Rs2: baseReg, Imm: rng.Intn(32)}
		case 8:
			if rng.Intn(2) == 0 {
				inst = insts.Instruction{Op: insts.OpLDR, Rd: reg(), Rs1: baseReg, Rs2: indexReg}
			} else {
				inst = insts.Instruction{Op: insts.OpSTR, Rs1: reg(), Rs2: baseReg, Rs3: indexReg}
			}
		case 9, 10:
			op := insts.OpBZ
			if rng.Intn(2) == 0 {
				op = insts.OpBNZ
			}
			inst = insts.Instruction{Op: op, Imm: skip * emu.InstructionSize}
		case 11:
			if rng.Intn(2) == 0 {
				inst = insts.Instruction{
					Op:  insts.OpJAL,
					Rd:  linkReg,
					Rs1: codeReg,
					Imm: (i + skip) * emu.InstructionSize,
				}
			} else {
				inst = insts.Instruction{Op: insts.OpNOP}
			}
		}
		program = append(program, inst)
	}

	return append(program, halt())
}

var _ = Describe("Equivalence with the sequential emulator", func() {
	for seed := int64(1); seed <= 40; seed++ {
		seed := seed

		It(fmt.Sprintf("should match on random program %d", seed), func() {
			rng := rand.New(rand.NewSource(seed))
			program := randomProgram(rng, 40)
			expectMatchesReference(program)
		})

		It(fmt.Sprintf("should match program %d with the data cache enabled", seed), func() {
			rng := rand.New(rand.NewSource(seed))
			program := randomProgram(rng, 40)
			pipe := newPipelineWithCache(program)
			ref := runReference(program, emu.NewMemory())

			Expect(pipe.Run()).To(Succeed())
			Expect(pipe.ArchRegisters()).To(Equal(ref.RegFile().R[:]))
			Expect(pipe.ZeroFlag()).To(Equal(ref.RegFile().Z))
			Expect(pipe.Memory().Snapshot()).To(Equal(ref.Memory().Snapshot()))
			Expect(pipe.Stats().Instructions).To(Equal(ref.InstructionCount()))
		})
	}

	It("should match under tight structural limits", func() {
		config := pipeline.DefaultConfig()
		config.IssueQueueSize = 3
		config.ROBSize = 2
		config.PhysRegisters = 20

		for seed := int64(100); seed < 120; seed++ {
			rng := rand.New(rand.NewSource(seed))
			expectMatchesReference(randomProgram(rng, 60), pipeline.WithConfig(config))
		}
	})

	It("should run every opcode", func() {
		var program []insts.Instruction
		program = append(program, movc(baseReg, 100), movc(indexReg, 2), movc(codeReg, emu.DefaultCodeBase))
		program = append(program, movc(1, 6), movc(2, 3))
		for _, op := range insts.AllOps() {
			if op == insts.OpHALT {
				continue
			}
			next := (len(program) + 1) * emu.InstructionSize
			switch op {
			case insts.OpLOAD:
				program = append(program, insts.Instruction{Op: op, Rd: 3, Rs1: baseReg, Imm: 1})
			case insts.OpLDR:
				program = append(program, insts.Instruction{Op: op, Rd: 4, Rs1: baseReg, Rs2: indexReg})
			case insts.OpSTORE:
				program = append(program, insts.Instruction{Op: op, Rs1: 1, Rs2: baseReg, Imm: 1})
			case insts.OpSTR:
				program = append(program, insts.Instruction{Op: op, Rs1: 2, Rs2: baseReg, Rs3: indexReg})
			case insts.OpBZ, insts.OpBNZ:
				program = append(program, insts.Instruction{Op: op, Imm: emu.InstructionSize})
			case insts.OpJUMP:
				program = append(program, insts.Instruction{Op: op, Rs1: codeReg, Imm: next})
			case insts.OpJAL:
				program = append(program, insts.Instruction{Op: op, Rd: linkReg, Rs1: codeReg, Imm: next})
			case insts.OpMOVC:
				program = append(program, movc(5, 11))
			case insts.OpCMP:
				program = append(program, insts.Instruction{Op: op, Rs1: 1, Rs2: 2})
			case insts.OpADDL, insts.OpSUBL:
				program = append(program, insts.Instruction{Op: op, Rd: 6, Rs1: 1, Imm: 2})
			case insts.OpNOP:
				program = append(program, insts.Instruction{Op: op})
			default:
				program = append(program, alu(op, 7, 1, 2))
			}
		}
		program = append(program, halt())

		pipe := expectMatchesReference(program)
		Expect(pipe.ArchRegisters()[linkReg]).NotTo(BeZero())
	})
})

var _ = Describe("Data cache", func() {
	It("should count misses and stall M2 on a miss", func() {
		program := []insts.Instruction{
			movc(1, 7),
			movc(2, 0),
			{Op: insts.OpSTORE, Rs1: 1, Rs2: 2, Imm: 10},
			{Op: insts.OpLOAD, Rd: 3, Rs1: 2, Imm: 10},
			{Op: insts.OpLOAD, Rd: 4, Rs1: 2, Imm: 2000},
			halt(),
		}

		cached := newPipelineWithCache(program)
		Expect(cached.Run()).To(Succeed())
		Expect(cached.ArchRegisters()[3]).To(Equal(7))
		Expect(cached.UseDCache()).To(BeTrue())

		stats := cached.Stats()
		Expect(stats.DCache.Misses).To(BeNumerically(">=", 2))
		Expect(stats.DCache.Hits).To(BeNumerically(">=", 1))
		Expect(stats.MemStalls).NotTo(BeZero())

		plain := newPipeline(program)
		Expect(plain.Run()).To(Succeed())
		Expect(plain.Stats().MemStalls).To(BeZero())
		Expect(cached.Stats().Cycles).To(BeNumerically(">", plain.Stats().Cycles))
	})
})

func newPipelineWithCache(program []insts.Instruction) *pipeline.Pipeline {
	memory := emu.NewMemory()
	return pipeline.NewPipeline(program, memory,
		pipeline.WithLogger(quietLogger()),
		pipeline.WithDCache(cache.DefaultL1DConfig()))
}
