package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/cache"
	"github.com/sarchlab/apexsim/timing/latency"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Dispatched is the number of micro-ops placed in the issue queue.
	Dispatched uint64
	// Stalls is the number of cycles decode held an instruction it could
	// not dispatch.
	Stalls uint64
	// Per-reason stall cycles.
	IQFullStalls   uint64
	ROBFullStalls  uint64
	RegisterStalls uint64
	BranchStalls   uint64
	// Flushes is the number of fetch redirects by taken branches and jumps.
	Flushes uint64
	// Issued counts micro-ops selected per functional-unit class.
	IntegerIssued  uint64
	MultiplyIssued uint64
	MemoryIssued   uint64
	BranchIssued   uint64
	// MemStalls is the number of cycles M2 was held by a cache miss.
	MemStalls uint64
	// DCache holds data cache statistics when the cache is enabled.
	DCache cache.Statistics
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// FrontEndSignals are the control outputs of the last cycle.
type FrontEndSignals struct {
	// Stall is set when decode could not dispatch and fetch did not advance.
	Stall bool
	// StallReason says why.
	StallReason StallReason
	// Redirected is set when a branch or jump moved the fetch PC.
	Redirected bool
	// RedirectPC is the new fetch address when Redirected is set.
	RedirectPC int
	// FlushDecode is set when the decode latch was discarded.
	FlushDecode bool
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithConfig sets the structural sizes.
func WithConfig(config Config) PipelineOption {
	return func(p *Pipeline) {
		p.config = config
	}
}

// WithLatencyTable sets a custom latency table for functional-unit timing.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithDCache enables the L1 data cache with the given configuration.
func WithDCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.dcacheConfig = &config
	}
}

// WithLogger sets the logger used for stall, flush and fault events.
func WithLogger(logger *logrus.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline is the APEX out-of-order core.
//
// Each cycle runs in reverse pipeline order so that a value broadcast by a
// unit is visible to issue and decode in the same cycle:
//
//	retire control ops -> JBU2 -> JBU1 -> M2 -> M1 -> MULU -> INTU
//	-> issue -> decode/rename/dispatch -> fetch -> halt check
type Pipeline struct {
	config       Config
	latencyTable *latency.Table
	logger       *logrus.Logger

	program []insts.Instruction
	memory  *emu.Memory
	dcache  *cache.Cache

	dcacheConfig *cache.Config

	regs *PhysRegFile
	rat  *RAT
	iq   *IssueQueue
	rob  *ReorderBuffer

	// Latches
	decode DecodeLatch
	intu   StageLatch
	mulu   StageLatch
	mem1   StageLatch
	mem2   StageLatch
	jbu1   StageLatch
	jbu2   StageLatch

	// Front end
	pc             int
	fetchBubble    bool
	fetchHold      bool
	fetchStopped   bool
	fetchExhausted bool
	branchPending  bool
	halting        bool

	// Zero flag. flagSeq numbers dispatched flag setters; zeroSeq is the
	// newest setter that has executed and zero its result.
	flagSeq uint64
	zeroSeq uint64
	zero    bool

	signals FrontEndSignals
	stats   Statistics

	halted bool
	err    error
}

// NewPipeline creates an out-of-order core running program against memory.
// It panics if the structural, timing or data cache configuration is
// invalid.
func NewPipeline(program []insts.Instruction, memory *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		config:  DefaultConfig(),
		program: program,
		memory:  memory,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.config.Validate(); err != nil {
		panic(fmt.Sprintf("pipeline: %v", err))
	}
	if p.latencyTable == nil {
		p.latencyTable = latency.NewTable()
	}
	if err := p.latencyTable.Config().Validate(); err != nil {
		panic(fmt.Sprintf("pipeline: %v", err))
	}
	if p.dcacheConfig != nil {
		if err := validateDCache(*p.dcacheConfig, p.memory); err != nil {
			panic(fmt.Sprintf("pipeline: %v", err))
		}
		p.dcache = cache.New(*p.dcacheConfig, cache.NewMemoryBacking(p.memory))
	}
	if p.logger == nil {
		p.logger = logrus.StandardLogger()
	}

	p.regs = NewPhysRegFile(p.config.PhysRegisters, p.config.ArchRegisters)
	p.rat = NewRAT(p.config.ArchRegisters, p.regs)
	p.iq = NewIssueQueue(p.config.IssueQueueSize)
	p.rob = NewReorderBuffer(p.config.ROBSize)
	p.clearLatches()
	p.pc = p.config.CodeBase

	return p
}

// validateDCache checks the cache geometry and that every line lies inside
// data memory.
func validateDCache(config cache.Config, memory *emu.Memory) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if memory.Size()%config.BlockSize != 0 {
		return fmt.Errorf("cache block size %d does not divide data memory size %d",
			config.BlockSize, memory.Size())
	}
	return nil
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	s := p.stats
	if p.dcache != nil {
		s.DCache = p.dcache.Stats()
	}
	return s
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Err returns the fault that halted the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Signals returns the front-end control outputs of the last cycle.
func (p *Pipeline) Signals() FrontEndSignals {
	return p.signals
}

// PC returns the next fetch address.
func (p *Pipeline) PC() int {
	return p.pc
}

// Run executes the pipeline until it halts and returns the halting fault,
// if any.
func (p *Pipeline) Run() error {
	for !p.halted {
		p.Tick()
	}
	return p.err
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Tick executes one pipeline cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.stats.Cycles++
	p.signals = FrontEndSignals{}

	steps := []func(){
		p.retireControl,
		p.stepJBU2,
		p.stepJBU1,
		p.stepMem2,
		p.stepMem1,
		p.stepMULU,
		p.stepINTU,
		p.issue,
		p.dispatch,
		p.fetch,
	}
	for _, step := range steps {
		step()
		if p.err != nil {
			p.halted = true
			p.logger.Warnf("[cycle %06d] halted on fault: %v", p.stats.Cycles, p.err)
			return
		}
	}

	if p.drained() {
		p.halted = true
		p.logger.Debugf("[cycle %06d] halted after %d instructions",
			p.stats.Cycles, p.stats.Instructions)
	}
}

// drained reports whether the core has stopped fetching and holds no work.
func (p *Pipeline) drained() bool {
	if !p.halting && !p.fetchExhausted {
		return false
	}
	return !p.decode.Valid &&
		p.iq.Len() == 0 &&
		p.rob.Empty() &&
		!p.intu.Valid && !p.mulu.Valid &&
		!p.mem1.Valid && !p.mem2.Valid &&
		!p.jbu1.Valid && !p.jbu2.Valid
}

// fault records err and stops the pipeline at the end of the current step.
func (p *Pipeline) fault(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Pipeline) clearLatches() {
	p.decode.Clear()
	p.intu.Clear()
	p.mulu.Clear()
	p.mem1.Clear()
	p.mem2.Clear()
	p.jbu1.Clear()
	p.jbu2.Clear()
}

// Reset restores the power-on state. Data memory is not cleared.
func (p *Pipeline) Reset() {
	p.regs.Reset()
	p.rat.Reset()
	p.iq.Reset()
	p.rob.Reset()
	p.clearLatches()
	if p.dcache != nil {
		p.dcache.Reset()
	}

	p.pc = p.config.CodeBase
	p.fetchBubble = false
	p.fetchHold = false
	p.fetchStopped = false
	p.fetchExhausted = false
	p.branchPending = false
	p.halting = false
	p.flagSeq, p.zeroSeq, p.zero = 0, 0, false
	p.signals = FrontEndSignals{}
	p.stats = Statistics{}
	p.halted = false
	p.err = nil
}

// LatencyTable returns the current latency table.
func (p *Pipeline) LatencyTable() *latency.Table {
	return p.latencyTable
}

// Config returns the structural configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// UseDCache returns true if the data cache is enabled.
func (p *Pipeline) UseDCache() bool {
	return p.dcache != nil
}
