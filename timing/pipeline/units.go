package pipeline

import (
	"errors"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/cache"
)

// retireControl retires resolved control ops from the ROB head. Memory ops
// leave the ROB when they are issued to M1.
func (p *Pipeline) retireControl() {
	for {
		head, ok := p.rob.Head()
		if !ok || !head.Inst.Op.IsControl() || !head.Completed {
			return
		}
		p.rob.RetireHead()
	}
}

// issue selects at most one ready micro-op per functional-unit class.
func (p *Pipeline) issue() {
	p.rob.MarkReady()
	cycle := p.stats.Cycles

	if !p.intu.Valid {
		if e, ok := p.iq.Select(insts.ClassInteger, nil); ok {
			p.intu = fromEntry(e, cycle)
			p.stats.IntegerIssued++
		}
	}

	if !p.mulu.Valid {
		if e, ok := p.iq.Select(insts.ClassMultiply, nil); ok {
			p.mulu = fromEntry(e, cycle)
			p.mulu.Remaining = p.latencyTable.GetLatency(e.Inst.Op)
			p.stats.MultiplyIssued++
		}
	}

	if !p.mem1.Valid {
		p.issueMemory(cycle)
	}

	if !p.jbu1.Valid {
		if e, ok := p.iq.Select(insts.ClassBranch, nil); ok {
			p.jbu1 = fromEntry(e, cycle)
			p.stats.BranchIssued++
		}
	}
}

// issueMemory issues the ROB head to M1 once its operands are ready and
// retires it from the ROB. Loads and stores therefore reach memory in
// program order.
func (p *Pipeline) issueMemory(cycle uint64) {
	head, ok := p.rob.Head()
	if !ok || !head.Inst.Op.IsMemory() || !head.MemoryReady {
		return
	}

	e, ok := p.iq.Select(insts.ClassMemory, func(e *IQEntry) bool {
		return e.PC == head.PC && e.ROBSeq == head.Seq
	})
	if !ok {
		return
	}

	p.rob.RetireHead()
	p.mem1 = fromEntry(e, cycle)
	p.stats.MemoryIssued++
}

// stepINTU executes the single-cycle integer unit.
func (p *Pipeline) stepINTU() {
	if !p.intu.Valid {
		return
	}
	l := p.intu
	p.intu.Clear()

	inst := l.Inst
	r := emu.Compute(inst, l.Src)
	if inst.Op.HasDest() {
		p.broadcast(l.Dest, r.Value)
	}
	if r.SetsZero {
		p.broadcastFlag(l.FlagSeq, r.Zero)
	}
	p.stats.Instructions++

	if inst.Op.ReadsZero() {
		p.rob.Complete(l.ROBSeq)
		if emu.BranchTaken(inst.Op, l.Zero) {
			p.redirect(l.PC, l.PC+inst.Imm)
		} else {
			p.branchPending = false
		}
	}
}

// stepMULU advances the multiply unit. A MUL broadcasts on the cycle its
// counter reaches zero.
func (p *Pipeline) stepMULU() {
	if !p.mulu.Valid {
		return
	}
	p.mulu.Remaining--
	if p.mulu.Remaining > 0 {
		return
	}

	l := p.mulu
	p.mulu.Clear()
	r := emu.Compute(l.Inst, l.Src)
	p.broadcast(l.Dest, r.Value)
	p.stats.Instructions++
}

// stepMem1 computes the effective address and hands the op to M2.
func (p *Pipeline) stepMem1() {
	if !p.mem1.Valid || p.mem2.Valid {
		return
	}
	l := p.mem1
	p.mem1.Clear()

	l.Address = emu.EffectiveAddress(l.Inst, l.Src)
	p.mem2 = l
}

// stepMem2 performs the data access. With the data cache enabled a miss
// holds M2, and with it M1 and memory issue, for the miss latency.
func (p *Pipeline) stepMem2() {
	l := &p.mem2
	if !l.Valid {
		return
	}

	if !l.Accessed {
		if !p.access(l) {
			return
		}
		l.Accessed = true
	}

	l.Remaining--
	if l.Remaining > 0 {
		p.stats.MemStalls++
		return
	}

	done := *l
	p.mem2.Clear()
	if done.Inst.Op.IsLoad() {
		p.broadcast(done.Dest, done.Result)
	}
	p.stats.Instructions++
}

// memoryFault records a failed data access, tagging a *emu.MemoryFault
// with the PC of the memory op.
func (p *Pipeline) memoryFault(err error, pc int) {
	var fault *emu.MemoryFault
	if errors.As(err, &fault) {
		fault.PC = pc
	}
	p.fault(err)
}

// access reads or writes data memory for l and sets its M2 occupancy.
func (p *Pipeline) access(l *StageLatch) bool {
	load := l.Inst.Op.IsLoad()
	if !p.memory.InRange(l.Address) {
		p.fault(&emu.MemoryFault{PC: l.PC, Addr: l.Address, Write: !load})
		return false
	}

	if p.dcache == nil {
		var err error
		if load {
			l.Result, err = p.memory.Read(l.Address)
		} else {
			err = p.memory.Write(l.Address, l.Src[0])
		}
		if err != nil {
			p.memoryFault(err, l.PC)
			return false
		}
		l.Remaining = 1
		return true
	}

	var (
		res cache.AccessResult
		err error
	)
	if load {
		res, err = p.dcache.Read(l.Address)
		l.Result = res.Data
	} else {
		res, err = p.dcache.Write(l.Address, l.Src[0])
	}
	if err != nil {
		p.memoryFault(err, l.PC)
		return false
	}
	hit := res.Hit
	l.Remaining = p.latencyTable.MemoryStageLatency(hit)
	if !hit {
		p.logger.Debugf("[cycle %06d] dcache miss at address %d", p.stats.Cycles, l.Address)
	}
	return true
}

// stepJBU1 reads the base operand and flushes decode. Fetch waits for the
// redirect from JBU2.
func (p *Pipeline) stepJBU1() {
	if !p.jbu1.Valid || p.jbu2.Valid {
		return
	}
	l := p.jbu1
	p.jbu1.Clear()

	p.flushDecode()
	p.fetchHold = true
	p.jbu2 = l
}

// stepJBU2 computes the jump target, links JAL and redirects fetch.
func (p *Pipeline) stepJBU2() {
	if !p.jbu2.Valid {
		return
	}
	l := p.jbu2
	p.jbu2.Clear()

	target := l.Src[0] + l.Inst.Imm
	if l.Inst.Op == insts.OpJAL {
		p.broadcast(l.Dest, l.PC+emu.InstructionSize)
	}
	p.rob.Complete(l.ROBSeq)
	p.stats.Instructions++
	p.redirect(l.PC, target)
}
