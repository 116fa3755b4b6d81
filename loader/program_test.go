package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/loader"
)

var _ = Describe("Program Loader", func() {
	Describe("ParseLine", func() {
		DescribeTable("operand layouts",
			func(text string, want insts.Instruction) {
				got, err := loader.ParseLine(text)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			},
			Entry("MOVC", "MOVC,R1,#5", insts.Instruction{Op: insts.OpMOVC, Rd: 1, Imm: 5}),
			Entry("ADD", "ADD,R3,R1,R2", insts.Instruction{Op: insts.OpADD, Rd: 3, Rs1: 1, Rs2: 2}),
			Entry("EXOR alias", "EXOR,R3,R1,R2", insts.Instruction{Op: insts.OpXOR, Rd: 3, Rs1: 1, Rs2: 2}),
			Entry("SUBL", "SUBL,R3,R1,#-2", insts.Instruction{Op: insts.OpSUBL, Rd: 3, Rs1: 1, Imm: -2}),
			Entry("LOAD", "LOAD,R3,R2,#0", insts.Instruction{Op: insts.OpLOAD, Rd: 3, Rs1: 2}),
			Entry("STORE", "STORE,R1,R2,#8", insts.Instruction{Op: insts.OpSTORE, Rs1: 1, Rs2: 2, Imm: 8}),
			Entry("STR", "STR,R1,R2,R3", insts.Instruction{Op: insts.OpSTR, Rs1: 1, Rs2: 2, Rs3: 3}),
			Entry("CMP", "CMP,R1,R2", insts.Instruction{Op: insts.OpCMP, Rs1: 1, Rs2: 2}),
			Entry("BNZ", "BNZ,#-8", insts.Instruction{Op: insts.OpBNZ, Imm: -8}),
			Entry("JUMP", "JUMP,R4,#0", insts.Instruction{Op: insts.OpJUMP, Rs1: 4}),
			Entry("JAL", "JAL,R5,R4,#12", insts.Instruction{Op: insts.OpJAL, Rd: 5, Rs1: 4, Imm: 12}),
			Entry("HALT", "HALT", insts.Instruction{Op: insts.OpHALT}),
			Entry("spaces and lower case", "movc r2, #10", insts.Instruction{Op: insts.OpMOVC, Rd: 2, Imm: 10}),
		)

		It("should reject unknown opcodes", func() {
			_, err := loader.ParseLine("DIVX,R1,R2,R3")
			Expect(err).To(MatchError(ContainSubstring("unknown opcode")))
		})

		It("should reject missing operands", func() {
			_, err := loader.ParseLine("ADD,R1,R2")
			Expect(err).To(MatchError(ContainSubstring("missing register")))
		})

		It("should reject extra operands", func() {
			_, err := loader.ParseLine("HALT,R1")
			Expect(err).To(MatchError(ContainSubstring("unexpected operands")))
		})

		It("should reject registers beyond R15", func() {
			_, err := loader.ParseLine("MOVC,R16,#1")
			Expect(err).To(MatchError(ContainSubstring("invalid register")))
		})
	})

	Describe("Parse", func() {
		It("should skip blank lines and comments", func() {
			src := "MOVC,R1,#5 ; first\n\n// whole-line comment\nMOVC,R2,#10\nHALT\n"
			prog, err := loader.Parse(strings.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(3))
			Expect(prog.CodeBase).To(Equal(4000))
			Expect(prog.PC(2)).To(Equal(4008))
		})

		It("should report the failing line", func() {
			_, err := loader.Parse(strings.NewReader("MOVC,R1,#5\nBOGUS\n"))
			var syntaxErr *loader.SyntaxError
			Expect(errors.As(err, &syntaxErr)).To(BeTrue())
			Expect(syntaxErr.Line).To(Equal(2))
		})
	})

	Describe("Load", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "apex-loader-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should load a program file", func() {
			path := filepath.Join(tempDir, "input.asm")
			Expect(os.WriteFile(path, []byte("MOVC,R1,#5\nHALT\n"), 0644)).To(Succeed())

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(2))
		})

		It("should fail for a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.asm"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})
	})
})
