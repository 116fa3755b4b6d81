package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have a zero Instruction that is a NOP", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
		Expect(i.Op).To(Equal(insts.OpNOP))
	})

	Describe("classification", func() {
		It("should classify every opcode without panicking", func() {
			for _, op := range insts.AllOps() {
				Expect(func() {
					op.Class()
					op.HasDest()
					insts.Instruction{Op: op}.Sources()
				}).NotTo(Panic(), op.String())
			}
		})

		It("should route opcodes to their functional units", func() {
			Expect(insts.OpADD.Class()).To(Equal(insts.ClassInteger))
			Expect(insts.OpBZ.Class()).To(Equal(insts.ClassInteger))
			Expect(insts.OpMUL.Class()).To(Equal(insts.ClassMultiply))
			Expect(insts.OpSTR.Class()).To(Equal(insts.ClassMemory))
			Expect(insts.OpJAL.Class()).To(Equal(insts.ClassBranch))
			Expect(insts.OpHALT.Class()).To(Equal(insts.ClassNone))
		})

		It("should place memory and control ops in the ROB", func() {
			rob := []insts.Op{}
			for _, op := range insts.AllOps() {
				if op.UsesROB() {
					rob = append(rob, op)
				}
			}
			Expect(rob).To(ConsistOf(
				insts.OpLOAD, insts.OpLDR, insts.OpSTORE, insts.OpSTR,
				insts.OpBZ, insts.OpBNZ, insts.OpJUMP, insts.OpJAL,
			))
		})

		It("should mark non-writing opcodes as having no destination", func() {
			for _, op := range []insts.Op{
				insts.OpSTORE, insts.OpSTR, insts.OpCMP, insts.OpJUMP,
				insts.OpHALT, insts.OpNOP, insts.OpBZ, insts.OpBNZ,
			} {
				Expect(op.HasDest()).To(BeFalse(), op.String())
			}
			Expect(insts.OpJAL.HasDest()).To(BeTrue())
		})

		It("should only let SUB, SUBL and CMP set the zero flag", func() {
			setters := []insts.Op{}
			for _, op := range insts.AllOps() {
				if op.SetsZero() {
					setters = append(setters, op)
				}
			}
			Expect(setters).To(ConsistOf(insts.OpSUB, insts.OpSUBL, insts.OpCMP))
		})
	})

	Describe("Sources", func() {
		It("should put the store data register first", func() {
			st := insts.Instruction{Op: insts.OpSTR, Rs1: 1, Rs2: 2, Rs3: 3}
			Expect(st.Sources()).To(Equal([]int{1, 2, 3}))
		})

		It("should have no sources for MOVC", func() {
			Expect(insts.Instruction{Op: insts.OpMOVC, Rd: 1}.Sources()).To(BeEmpty())
		})

		It("should never exceed MaxSources", func() {
			for _, op := range insts.AllOps() {
				Expect(len(insts.Instruction{Op: op}.Sources())).To(BeNumerically("<=", insts.MaxSources))
			}
		})
	})

	Describe("names", func() {
		It("should round-trip mnemonics", func() {
			for _, op := range insts.AllOps() {
				parsed, ok := insts.ParseOp(op.String())
				Expect(ok).To(BeTrue())
				Expect(parsed).To(Equal(op))
			}
		})

		It("should accept EXOR as XOR", func() {
			op, ok := insts.ParseOp("EXOR")
			Expect(ok).To(BeTrue())
			Expect(op).To(Equal(insts.OpXOR))
		})

		It("should render assembler syntax", func() {
			Expect(insts.Instruction{Op: insts.OpMOVC, Rd: 1, Imm: 5}.String()).To(Equal("MOVC,R1,#5"))
			Expect(insts.Instruction{Op: insts.OpSTORE, Rs1: 1, Rs2: 2, Imm: 0}.String()).To(Equal("STORE,R1,R2,#0"))
		})
	})
})
