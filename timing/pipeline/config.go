package pipeline

import (
	"fmt"

	"github.com/sarchlab/apexsim/emu"
)

// Config holds the structural sizes of the out-of-order core.
type Config struct {
	// ArchRegisters is the number of architectural registers.
	ArchRegisters int `yaml:"arch_registers"`
	// PhysRegisters is the number of physical registers. The first
	// ArchRegisters of them hold the reset state of R0..Rn.
	PhysRegisters int `yaml:"phys_registers"`
	// IssueQueueSize is the number of reservation-station slots.
	IssueQueueSize int `yaml:"issue_queue_size"`
	// ROBSize is the number of reorder-buffer entries.
	ROBSize int `yaml:"rob_size"`
	// CodeBase is the address of the first instruction.
	CodeBase int `yaml:"code_base"`
}

// DefaultConfig returns the APEX reference machine sizes.
func DefaultConfig() Config {
	return Config{
		ArchRegisters:  emu.NumArchRegs,
		PhysRegisters:  48,
		IssueQueueSize: 24,
		ROBSize:        64,
		CodeBase:       emu.DefaultCodeBase,
	}
}

// Validate checks that the sizes describe a working machine.
func (c Config) Validate() error {
	if c.ArchRegisters != emu.NumArchRegs {
		return fmt.Errorf("arch_registers must be %d", emu.NumArchRegs)
	}
	if c.PhysRegisters <= c.ArchRegisters {
		return fmt.Errorf("phys_registers (%d) must exceed arch_registers (%d)",
			c.PhysRegisters, c.ArchRegisters)
	}
	if c.IssueQueueSize <= 0 {
		return fmt.Errorf("issue_queue_size must be > 0")
	}
	if c.ROBSize <= 0 {
		return fmt.Errorf("rob_size must be > 0")
	}
	if c.CodeBase < 0 || c.CodeBase%emu.InstructionSize != 0 {
		return fmt.Errorf("code_base must be a non-negative multiple of %d", emu.InstructionSize)
	}
	return nil
}
