// Package pipeline provides the APEX out-of-order core: register renaming,
// an issue queue, a reorder buffer for memory and control ops, four
// functional units and a same-cycle forwarding network.
package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// noReg marks an absent physical register.
const noReg = -1

// DecodeLatch holds the fetched instruction waiting in decode.
//
// Sources are renamed the first time the instruction is decoded and kept
// across stall cycles. The forwarding network updates them in place.
type DecodeLatch struct {
	// Valid indicates if this latch holds an instruction.
	Valid bool

	// PC is the address of the instruction.
	PC int

	// Inst is the instruction.
	Inst insts.Instruction

	// Renamed is set once Src holds physical tags.
	Renamed bool

	// Renamed source operands in insts.Instruction.Sources order.
	Src      [insts.MaxSources]int
	SrcValue emu.Operands
	SrcReady [insts.MaxSources]bool

	// FetchCycle is the cycle the instruction was fetched.
	FetchCycle uint64
}

// Clear resets the decode latch to empty state.
func (l *DecodeLatch) Clear() {
	*l = DecodeLatch{}
}

// StageLatch carries one micro-op through a functional-unit stage.
// Latches are copied between stages, never shared.
type StageLatch struct {
	// Valid indicates if this latch holds a micro-op.
	Valid bool

	PC   int
	Inst insts.Instruction

	// Dest is the physical destination, or -1.
	Dest int

	// Src holds the captured source values.
	Src emu.Operands

	// Zero is the captured flag for BZ and BNZ.
	Zero bool

	// FlagSeq is the flag-producer sequence number of SUB, SUBL and CMP.
	FlagSeq uint64

	// ROBSeq identifies the reorder-buffer entry of control ops.
	ROBSeq uint64

	// Address is the effective address computed in M1.
	Address int

	// Result is the value loaded in M2.
	Result int

	// IssueCycle is the cycle the micro-op left the issue queue.
	IssueCycle uint64

	// Remaining counts the cycles left in a multi-cycle stage.
	Remaining uint64

	// Accessed is set once M2 has performed the data access.
	Accessed bool
}

// Clear resets the stage latch to empty state.
func (l *StageLatch) Clear() {
	*l = StageLatch{Dest: noReg}
}

// fromEntry builds a stage latch for a selected issue-queue entry.
func fromEntry(e IQEntry, cycle uint64) StageLatch {
	return StageLatch{
		Valid:      true,
		PC:         e.PC,
		Inst:       e.Inst,
		Dest:       e.Dest,
		Src:        e.SrcValue,
		Zero:       e.Zero,
		FlagSeq:    e.FlagSeq,
		ROBSeq:     e.ROBSeq,
		IssueCycle: cycle,
	}
}
