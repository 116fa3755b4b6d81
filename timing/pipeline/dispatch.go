package pipeline

import (
	"github.com/sarchlab/apexsim/insts"
)

// dispatch decodes, renames and dispatches the instruction in the decode
// latch. Dispatch is all or nothing: if the issue queue, the ROB or the
// free list cannot take the instruction, no core state changes and the
// front end stalls.
func (p *Pipeline) dispatch() {
	if !p.decode.Valid {
		return
	}

	// Nothing younger than an unresolved control op enters the core.
	if p.branchPending {
		p.stall(StallBranchPending)
		return
	}

	inst := p.decode.Inst
	if inst.Op == insts.OpHALT {
		p.halting = true
		p.stats.Instructions++
		p.logger.Debugf("[cycle %06d] HALT decoded at pc %d, draining",
			p.stats.Cycles, p.decode.PC)
		p.decode.Clear()
		return
	}

	if !p.decode.Renamed {
		p.renameSources()
	}

	if reason := p.checkResources(inst); reason != StallNone {
		p.stall(reason)
		return
	}

	entry := IQEntry{
		PC:           p.decode.PC,
		Inst:         inst,
		Class:        inst.Op.Class(),
		Dest:         noReg,
		Src:          p.decode.Src,
		SrcValue:     p.decode.SrcValue,
		SrcReady:     p.decode.SrcReady,
		NumSrc:       len(inst.Sources()),
		Imm:          inst.Imm,
		EnqueueCycle: p.stats.Cycles,
	}

	if inst.Op.HasDest() {
		// checkResources guarantees a free register.
		entry.Dest, _ = p.rat.Rename(inst.Rd)
	}

	if inst.Op.SetsZero() {
		p.flagSeq++
		entry.FlagSeq = p.flagSeq
	}
	if inst.Op.ReadsZero() {
		entry.FlagTag = p.flagSeq
		if p.zeroSeq == p.flagSeq {
			entry.FlagReady = true
			entry.Zero = p.zero
		}
	}

	if inst.Op.UsesROB() {
		robEntry := ROBEntry{
			PC:            entry.PC,
			Inst:          inst,
			Src:           entry.Src,
			SrcReady:      entry.SrcReady,
			NumSrc:        entry.NumSrc,
			DestPhys:      entry.Dest,
			DestArch:      noReg,
			DispatchCycle: p.stats.Cycles,
		}
		if inst.Op.HasDest() {
			robEntry.DestArch = inst.Rd
		}
		entry.ROBSeq, _ = p.rob.Enqueue(robEntry, robEntry.operandsReady())
	}

	p.iq.Insert(entry)
	p.stats.Dispatched++

	if inst.Op.IsControl() {
		p.branchPending = true
	}

	p.decode.Clear()
}

// renameSources snapshots the current mapping of every source operand.
func (p *Pipeline) renameSources() {
	for s, arch := range p.decode.Inst.Sources() {
		tag := p.rat.Lookup(arch)
		p.decode.Src[s] = tag
		if p.regs.Ready(tag) {
			p.decode.SrcValue[s] = p.regs.Value(tag)
			p.decode.SrcReady[s] = true
		}
	}
	p.decode.Renamed = true
}

func (p *Pipeline) checkResources(inst insts.Instruction) StallReason {
	if p.iq.Full() {
		return StallIQFull
	}
	if inst.Op.UsesROB() && p.rob.Full() {
		return StallROBFull
	}
	if inst.Op.HasDest() && p.regs.FreeCount() == 0 {
		return StallNoFreeRegister
	}
	return StallNone
}

func (p *Pipeline) stall(reason StallReason) {
	p.stats.Stalls++
	switch reason {
	case StallIQFull:
		p.stats.IQFullStalls++
	case StallROBFull:
		p.stats.ROBFullStalls++
	case StallNoFreeRegister:
		p.stats.RegisterStalls++
	case StallBranchPending:
		p.stats.BranchStalls++
	}

	p.signals.Stall = true
	p.signals.StallReason = reason
	p.logger.Debugf("[cycle %06d] stall at pc %d: %v",
		p.stats.Cycles, p.decode.PC, reason)
}
