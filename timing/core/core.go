// Package core provides the cycle-accurate APEX core model.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// ErrCycleLimit is returned by RunFor when the core is still running after
// the cycle budget is spent.
var ErrCycleLimit = errors.New("cycle limit reached")

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of dispatch stall cycles.
	Stalls uint64
	// Flushes is the number of fetch redirects.
	Flushes uint64
	// MemStalls is the number of cycles M2 was held by a cache miss.
	MemStalls uint64
}

// CPI returns cycles per retired instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core represents a cycle-accurate APEX core.
type Core struct {
	// Pipeline is the underlying out-of-order pipeline.
	Pipeline *pipeline.Pipeline

	program []insts.Instruction
	memory  *emu.Memory
}

// NewCore creates a core that runs program against memory.
func NewCore(program []insts.Instruction, memory *emu.Memory, opts ...pipeline.PipelineOption) *Core {
	return &Core{
		Pipeline: pipeline.NewPipeline(program, memory, opts...),
		program:  program,
		memory:   memory,
	}
}

// Program returns the instructions the core executes.
func (c *Core) Program() []insts.Instruction {
	return c.program
}

// Memory returns the data memory.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Err returns the fault that halted the core, if any.
func (c *Core) Err() error {
	return c.Pipeline.Err()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.Stalls,
		Flushes:      pipeStats.Flushes,
		MemStalls:    pipeStats.MemStalls,
	}
}

// Run executes the core until it halts.
func (c *Core) Run() error {
	if err := c.Pipeline.Run(); err != nil {
		return fmt.Errorf("core halted on fault: %w", err)
	}
	return nil
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Pipeline.RunCycles(cycles)
}

// RunFor runs until the core halts or maxCycles have elapsed. A zero
// maxCycles runs without limit.
func (c *Core) RunFor(maxCycles uint64) error {
	if maxCycles == 0 {
		return c.Run()
	}
	c.RunCycles(maxCycles)
	if err := c.Pipeline.Err(); err != nil {
		return fmt.Errorf("core halted on fault: %w", err)
	}
	if !c.Halted() {
		return fmt.Errorf("after %d cycles: %w", maxCycles, ErrCycleLimit)
	}
	return nil
}

// Reset clears all core state. Data memory is kept.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}
