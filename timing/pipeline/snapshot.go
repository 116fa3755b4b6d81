package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// StageSnapshot describes the micro-op held by one pipeline latch.
type StageSnapshot struct {
	Name  string
	Valid bool
	PC    int
	Inst  insts.Instruction
}

// Stages returns the decode latch and every functional-unit latch, front
// to back.
func (p *Pipeline) Stages() []StageSnapshot {
	stages := []StageSnapshot{
		{Name: "Decode", Valid: p.decode.Valid, PC: p.decode.PC, Inst: p.decode.Inst},
	}
	units := []struct {
		name  string
		latch *StageLatch
	}{
		{"INTU", &p.intu},
		{"MULU", &p.mulu},
		{"MEM1", &p.mem1},
		{"MEM2", &p.mem2},
		{"JBU1", &p.jbu1},
		{"JBU2", &p.jbu2},
	}
	for _, u := range units {
		stages = append(stages, StageSnapshot{
			Name:  u.name,
			Valid: u.latch.Valid,
			PC:    u.latch.PC,
			Inst:  u.latch.Inst,
		})
	}
	return stages
}

// DecodeLatch returns a copy of the decode latch.
func (p *Pipeline) DecodeLatch() DecodeLatch {
	return p.decode
}

// DCacheBlocks returns the block addresses resident in the data cache, or
// nil when the cache is disabled.
func (p *Pipeline) DCacheBlocks() []int {
	if p.dcache == nil {
		return nil
	}
	return p.dcache.ResidentBlocks()
}

// DCacheHolds reports whether the data cache holds the word at addr.
func (p *Pipeline) DCacheHolds(addr int) bool {
	return p.dcache != nil && p.dcache.Contains(addr)
}

// MultiplyBusy returns the cycles left on the multiply unit, or 0 when idle.
func (p *Pipeline) MultiplyBusy() uint64 {
	if !p.mulu.Valid {
		return 0
	}
	return p.mulu.Remaining
}

// PhysRegisters returns a copy of the physical register file.
func (p *Pipeline) PhysRegisters() []PhysReg {
	return p.regs.Snapshot()
}

// RenameTable returns the current architectural to physical mapping.
func (p *Pipeline) RenameTable() []int {
	return p.rat.Snapshot()
}

// ArchRegisters returns the value of each architectural register through
// the current mapping. A register whose producer is still in flight reads
// as its unwritten physical register.
func (p *Pipeline) ArchRegisters() []int {
	out := make([]int, p.config.ArchRegisters)
	for i := range out {
		out[i] = p.regs.Value(p.rat.Lookup(i))
	}
	return out
}

// ArchRegFile returns the architectural state as an emu.RegFile, for
// comparison with the sequential emulator.
func (p *Pipeline) ArchRegFile() *emu.RegFile {
	rf := &emu.RegFile{PC: p.pc, Z: p.zero}
	for i, v := range p.ArchRegisters() {
		rf.WriteReg(i, v)
	}
	return rf
}

// IssueQueue returns the occupied issue-queue entries, oldest first.
func (p *Pipeline) IssueQueue() []IQEntry {
	return p.iq.Snapshot()
}

// ReorderBuffer returns the ROB entries from head to tail.
func (p *Pipeline) ReorderBuffer() []ROBEntry {
	return p.rob.Snapshot()
}

// ZeroFlag returns the zero flag of the newest executed flag setter.
func (p *Pipeline) ZeroFlag() bool {
	return p.zero
}

// Memory returns the data memory.
func (p *Pipeline) Memory() *emu.Memory {
	return p.memory
}
