package pipeline

// broadcast publishes value for physical register tag. The decode latch,
// every issue-queue entry and every ROB entry waiting on tag capture it in
// the same cycle. A superseded register is released once its consumers
// have the value.
func (p *Pipeline) broadcast(tag, value int) {
	if tag == noReg {
		return
	}

	p.regs.CommitWriteback(tag, value)

	if p.decode.Valid && p.decode.Renamed {
		n := len(p.decode.Inst.Sources())
		for s := 0; s < n; s++ {
			if !p.decode.SrcReady[s] && p.decode.Src[s] == tag {
				p.decode.SrcValue[s] = value
				p.decode.SrcReady[s] = true
			}
		}
	}

	p.iq.Wakeup(tag, value)
	p.rob.Wakeup(tag)
	p.regs.releaseIfDead(tag)
}

// broadcastFlag publishes the zero flag computed by flag setter seq. The
// architectural flag only moves forward in program order.
func (p *Pipeline) broadcastFlag(seq uint64, zero bool) {
	if seq > p.zeroSeq {
		p.zeroSeq = seq
		p.zero = zero
	}
	p.iq.WakeupFlag(seq, zero)
}
