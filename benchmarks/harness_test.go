package benchmarks_test

import (
	"bytes"
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/benchmarks"
)

var _ = Describe("Harness", func() {
	var (
		out    *bytes.Buffer
		config benchmarks.HarnessConfig
	)

	run := func(benches []benchmarks.Benchmark) []benchmarks.BenchmarkResult {
		h := benchmarks.NewHarness(config)
		h.AddBenchmarks(benches)
		return h.RunAll()
	}

	byName := func(results []benchmarks.BenchmarkResult, name string) benchmarks.BenchmarkResult {
		for _, r := range results {
			if r.Name == name {
				return r
			}
		}
		Fail("no result named " + name)
		return benchmarks.BenchmarkResult{}
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		config = benchmarks.DefaultConfig()
		config.Output = out
	})

	It("should run every microbenchmark to a valid result", func() {
		for _, dcache := range []bool{false, true} {
			config.EnableDCache = dcache
			results := run(benchmarks.GetMicrobenchmarks())
			Expect(results).To(HaveLen(8))
			for _, r := range results {
				Expect(r.Err).To(BeEmpty(), r.Name)
				Expect(r.Valid).To(BeTrue(), r.Name)
				Expect(r.SimulatedCycles).NotTo(BeZero(), r.Name)
				Expect(r.InstructionsRetired).NotTo(BeZero(), r.Name)
			}
		}
	})

	It("should show the cost of dependences", func() {
		config.EnableDCache = false
		results := run(benchmarks.GetMicrobenchmarks())

		independent := byName(results, "arithmetic_sequential")
		chain := byName(results, "dependency_chain")
		mul := byName(results, "multiply_chain")

		Expect(independent.InstructionsRetired).To(Equal(chain.InstructionsRetired))
		Expect(chain.SimulatedCycles).To(BeNumerically(">=", independent.SimulatedCycles))
		Expect(mul.CPI).To(BeNumerically(">", chain.CPI))
	})

	It("should count flushes for taken branches", func() {
		results := run(benchmarks.GetCoreBenchmarks())
		Expect(results).To(HaveLen(3))
		Expect(byName(results, "branch_loop").PipelineFlushes).To(Equal(uint64(9)))
		Expect(byName(results, "function_calls").PipelineFlushes).To(Equal(uint64(6)))
	})

	It("should report data cache activity", func() {
		config.EnableDCache = true
		r := byName(run(benchmarks.GetMicrobenchmarks()), "matrix_multiply_2x2")
		Expect(r.DCacheMisses).NotTo(BeZero())
		Expect(r.MemStalls).NotTo(BeZero())
	})

	It("should print text and CSV", func() {
		h := benchmarks.NewHarness(config)
		h.AddBenchmark(benchmarks.GetCoreBenchmarks()[0])
		results := h.RunAll()

		h.PrintResults(results)
		Expect(out.String()).To(ContainSubstring("Benchmark: branch_loop"))

		out.Reset()
		h.PrintCSV(results)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(HavePrefix("name,cycles,instructions,cpi"))
		Expect(lines[1]).To(HavePrefix("branch_loop,"))
	})

	It("should print a JSON report with a summary", func() {
		h := benchmarks.NewHarness(config)
		h.AddBenchmarks(benchmarks.GetCoreBenchmarks())
		results := h.RunAll()
		Expect(h.PrintJSON(results)).To(Succeed())

		var report benchmarks.BenchmarkReport
		Expect(json.Unmarshal(out.Bytes(), &report)).To(Succeed())
		Expect(report.Results).To(HaveLen(3))
		Expect(report.Summary.TotalBenchmarks).To(Equal(3))
		Expect(report.Summary).To(Equal(benchmarks.Summarize(results)))
		Expect(report.Metadata.DCacheEnabled).To(BeTrue())
	})
})
