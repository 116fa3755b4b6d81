package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// fetch reads the instruction at pc into the empty decode latch.
func (p *Pipeline) fetch() {
	if p.fetchBubble {
		p.fetchBubble = false
		return
	}
	if p.fetchHold || p.fetchStopped || p.fetchExhausted {
		return
	}
	if p.decode.Valid {
		// Decode still holds the previous instruction.
		return
	}

	index := (p.pc - p.config.CodeBase) / emu.InstructionSize
	if index < 0 || index >= len(p.program) {
		p.fetchExhausted = true
		p.logger.Debugf("[cycle %06d] fetch ran past program end at pc %d",
			p.stats.Cycles, p.pc)
		return
	}

	inst := p.program[index]
	p.decode = DecodeLatch{
		Valid:      true,
		PC:         p.pc,
		Inst:       inst,
		FetchCycle: p.stats.Cycles,
	}
	p.pc += emu.InstructionSize

	if inst.Op == insts.OpHALT {
		p.fetchStopped = true
	}
}

// validTarget reports whether target is an aligned code address.
func (p *Pipeline) validTarget(target int) bool {
	offset := target - p.config.CodeBase
	return offset >= 0 && offset%emu.InstructionSize == 0
}

// redirect moves fetch to target. The decode latch is flushed and fetch
// skips one cycle.
func (p *Pipeline) redirect(pc, target int) {
	if !p.validTarget(target) {
		p.fault(&TargetFault{PC: pc, Target: target})
		return
	}

	p.pc = target
	p.flushDecode()
	p.fetchBubble = true
	p.fetchHold = false
	p.fetchStopped = false
	p.fetchExhausted = false
	p.branchPending = false
	p.stats.Flushes++

	p.signals.Redirected = true
	p.signals.RedirectPC = target
	p.logger.Debugf("[cycle %06d] redirect from pc %d to %d",
		p.stats.Cycles, pc, target)
}

func (p *Pipeline) flushDecode() {
	if p.decode.Valid {
		p.decode.Clear()
	}
	p.signals.FlushDecode = true
}
