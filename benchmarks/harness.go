// Package benchmarks provides timing benchmark infrastructure for the APEX
// core: a set of microbenchmark programs and a harness that runs them and
// reports cycle counts.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/cache"
	"github.com/sarchlab/apexsim/timing/core"
	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of dispatch stall cycles
	StallCycles uint64 `json:"stall_cycles"`

	// Per-reason dispatch stalls
	IQFullStalls   uint64 `json:"iq_full_stalls"`
	ROBFullStalls  uint64 `json:"rob_full_stalls"`
	RegisterStalls uint64 `json:"register_stalls"`
	BranchStalls   uint64 `json:"branch_stalls"`

	// MemStalls is cycles M2 was held by a data cache miss
	MemStalls uint64 `json:"mem_stalls"`

	// PipelineFlushes is the number of fetch redirects
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Valid is set when every expected register holds its final value
	Valid bool `json:"valid"`

	// Err is the fault that stopped the run, if any
	Err string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares data memory before the run
	Setup func(memory *emu.Memory)

	// Program is the instruction sequence to execute
	Program []insts.Instruction

	// ExpectedRegs maps architectural registers to their final values
	ExpectedRegs map[int]int
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data cache simulation
	EnableDCache bool

	// Pipeline holds the structural sizes of the core
	Pipeline pipeline.Config

	// Timing holds the functional-unit and cache latencies
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives pipeline events (default: discarded)
	Logger *logrus.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: true,
		Pipeline:     pipeline.DefaultConfig(),
		Timing:       latency.DefaultTimingConfig(),
		Output:       os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
		config.Logger.SetOutput(io.Discard)
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh core.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	memory := emu.NewMemory()
	if bench.Setup != nil {
		bench.Setup(memory)
	}

	opts := []pipeline.PipelineOption{
		pipeline.WithConfig(h.config.Pipeline),
		pipeline.WithLatencyTable(latency.NewTableWithConfig(h.config.Timing)),
		pipeline.WithLogger(h.config.Logger),
	}
	if h.config.EnableDCache {
		opts = append(opts, pipeline.WithDCache(cache.DefaultL1DConfig()))
	}

	c := core.NewCore(bench.Program, memory, opts...)

	start := time.Now()
	err := c.Run()
	wallTime := time.Since(start)

	stats := c.Pipeline.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		StallCycles:         stats.Stalls,
		IQFullStalls:        stats.IQFullStalls,
		ROBFullStalls:       stats.ROBFullStalls,
		RegisterStalls:      stats.RegisterStalls,
		BranchStalls:        stats.BranchStalls,
		MemStalls:           stats.MemStalls,
		PipelineFlushes:     stats.Flushes,
		WallTime:            wallTime,
	}
	if err != nil {
		result.Err = err.Error()
	}
	result.Valid = err == nil && checkRegisters(c.Pipeline.ArchRegisters(), bench.ExpectedRegs)

	if c.Pipeline.UseDCache() {
		result.DCacheHits = stats.DCache.Hits
		result.DCacheMisses = stats.DCache.Misses
	}

	return result
}

func checkRegisters(regs []int, expected map[int]int) bool {
	for r, want := range expected {
		if regs[r] != want {
			return false
		}
	}
	return true
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== APEX Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  Valid: %v\n", r.Valid)
		if r.Err != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Err)
		}
		_, _ = fmt.Fprintln(out, "  --- Timing ---")
		_, _ = fmt.Fprintf(out, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(out, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(out, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(out, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(out, "    IQ full:            %d\n", r.IQFullStalls)
		_, _ = fmt.Fprintf(out, "    ROB full:           %d\n", r.ROBFullStalls)
		_, _ = fmt.Fprintf(out, "    No free register:   %d\n", r.RegisterStalls)
		_, _ = fmt.Fprintf(out, "    Branch pending:     %d\n", r.BranchStalls)
		_, _ = fmt.Fprintf(out, "  Mem Stalls:           %d\n", r.MemStalls)
		_, _ = fmt.Fprintf(out, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(out, "  Misses: %d\n", r.DCacheMisses)
		}

		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,iq_full,rob_full,no_register,branch_pending,mem_stalls,flushes,dcache_hits,dcache_misses")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.IQFullStalls,
			r.ROBFullStalls,
			r.RegisterStalls,
			r.BranchStalls,
			r.MemStalls,
			r.PipelineFlushes,
			r.DCacheHits,
			r.DCacheMisses,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Pipeline and Timing describe the simulated machine
	Pipeline      pipeline.Config      `json:"pipeline"`
	Timing        latency.TimingConfig `json:"timing"`
	DCacheEnabled bool                 `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the aggregate cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
	}
	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			Pipeline:      h.config.Pipeline,
			Timing:        *h.config.Timing,
			DCacheEnabled: h.config.EnableDCache,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
