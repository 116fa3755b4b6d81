package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/timing/core"
)

const mulProgram = `; multiply and store
MOVC,R1,#6
MOVC,R2,#7
MUL,R3,R1,R2
STORE,R3,R0,#20
HALT
`

var _ = Describe("apexsim", func() {
	var dir string

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	execute := func(args ...string) (string, error) {
		cmd := newRootCmd()
		var out, errOut bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Describe("run", func() {
		It("should print statistics and registers", func() {
			out, err := execute("run", writeFile("mul.asm", mulProgram))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Total Instructions: 5"))
			Expect(out).To(ContainSubstring("CPI:"))
			Expect(out).To(ContainSubstring("Latencies: INTU 1, MULU 3\n"))
			Expect(out).To(MatchRegexp(`R3 += 42 `))
		})

		It("should print requested memory words", func() {
			out, err := execute("run", "--show-mem", "--mem-addr", "20,21",
				writeFile("mul.asm", mulProgram))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("MEM[20] = 42"))
			Expect(out).To(ContainSubstring("MEM[21] = 0"))
		})

		It("should reject an out-of-range memory query", func() {
			_, err := execute("run", "--mem-addr", "9999", writeFile("mul.asm", mulProgram))
			Expect(err).To(HaveOccurred())
		})

		It("should pass the reference check", func() {
			out, err := execute("run", "--check", writeFile("mul.asm", mulProgram))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Reference check: OK"))
		})

		It("should stop at the cycle limit with queue contents", func() {
			out, err := execute("run", "--max-cycles", "4", "--show-iq", "--show-rob",
				writeFile("mul.asm", mulProgram))
			Expect(errors.Is(err, core.ErrCycleLimit)).To(BeTrue())
			Expect(out).To(ContainSubstring("Issue queue"))
			Expect(out).To(ContainSubstring("Reorder buffer"))
		})

		It("should report a missing program", func() {
			_, err := execute("run", filepath.Join(dir, "missing.asm"))
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("should reject an invalid log level", func() {
			_, err := execute("--log-level", "loud", "run", writeFile("mul.asm", mulProgram))
			Expect(err).To(HaveOccurred())
		})

		It("should apply a machine config with the data cache", func() {
			config := writeFile("machine.yaml", `
timing:
  multiply_latency: 5
dcache:
  enabled: true
  size: 64
  associativity: 2
  block_size: 4
`)
			out, err := execute("--config", config, "run", "--check", "--show-mem",
				"--mem-addr", "20,40", writeFile("mul.asm", mulProgram))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Latencies: INTU 1, MULU 5, D-cache hit 1, miss 10"))
			Expect(out).To(ContainSubstring("D-cache:"))
			Expect(out).To(ContainSubstring("D-cache resident blocks (1):\n  20\n"))
			Expect(out).To(ContainSubstring("MEM[20] = 42 (cached)\n"))
			Expect(out).To(ContainSubstring("MEM[40] = 0\n"))
		})

		It("should reject a machine config with a zero-way data cache", func() {
			config := writeFile("machine.yaml", `
dcache:
  enabled: true
  size: 64
  associativity: 0
  block_size: 4
`)
			_, err := execute("--config", config, "run", writeFile("mul.asm", mulProgram))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("trace", func() {
		It("should print every stage per cycle", func() {
			out, err := execute("trace", writeFile("mul.asm", mulProgram))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("cycle 000001: Decode[4000 MOVC,R1,#6]"))
			Expect(out).To(ContainSubstring("MULU["))
			Expect(out).To(ContainSubstring("Halted after"))
		})

		It("should show the renamed sources of a stalled decode", func() {
			config := writeFile("machine.yaml", `
pipeline:
  issue_queue_size: 1
`)
			program := writeFile("chain.asm", `MOVC,R1,#6
MOVC,R2,#7
MUL,R3,R1,R2
ADD,R4,R3,R1
ADD,R5,R4,R3
HALT
`)
			out, err := execute("--config", config, "trace", program)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`stall=issue queue full srcs=\[P\d+\*`))
		})
	})

	Describe("bench", func() {
		It("should print the core benchmarks as CSV", func() {
			out, err := execute("bench", "--core", "--format", "csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("branch_loop,"))
			Expect(out).To(ContainSubstring("matrix_multiply_2x2,"))
		})

		It("should reject an unknown format", func() {
			_, err := execute("bench", "--core", "--format", "xml")
			Expect(err).To(MatchError(ContainSubstring("unknown format")))
		})
	})

	Describe("LoadMachine", func() {
		It("should return defaults for an empty path", func() {
			m, err := LoadMachine("")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Pipeline.PhysRegisters).To(Equal(48))
			Expect(m.Timing.MultiplyLatency).To(Equal(uint64(3)))
			Expect(m.DCache.Enabled).To(BeFalse())
		})

		It("should keep defaults for omitted fields", func() {
			m, err := LoadMachine(writeFile("m.yaml", "pipeline:\n  rob_size: 8\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Pipeline.ROBSize).To(Equal(8))
			Expect(m.Pipeline.IssueQueueSize).To(Equal(24))
		})

		It("should reject unknown fields", func() {
			_, err := LoadMachine(writeFile("m.yaml", "pipeline:\n  lanes: 2\n"))
			Expect(err).To(HaveOccurred())
		})

		It("should reject an invalid section", func() {
			_, err := LoadMachine(writeFile("m.yaml", "timing:\n  integer_latency: 2\n"))
			Expect(err).To(MatchError(ContainSubstring("timing")))
		})
	})
})
