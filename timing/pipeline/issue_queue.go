package pipeline

import (
	"sort"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// IQEntry is one reservation-station slot.
type IQEntry struct {
	PC    int
	Inst  insts.Instruction
	Class insts.Class

	// Dest is the physical destination, or -1.
	Dest int

	// Source operands in insts.Instruction.Sources order. Slots at or
	// beyond NumSrc are unused and count as ready.
	Src      [insts.MaxSources]int
	SrcValue emu.Operands
	SrcReady [insts.MaxSources]bool
	NumSrc   int

	Imm int

	// FlagSeq is the producer sequence number of a flag setter.
	FlagSeq uint64

	// FlagTag is the producer BZ/BNZ waits on; FlagReady and Zero hold
	// the delivered flag.
	FlagTag   uint64
	FlagReady bool
	Zero      bool

	// ROBSeq is the reorder-buffer entry of memory and control ops.
	ROBSeq uint64

	// EnqueueCycle orders entries competing for the same unit.
	EnqueueCycle uint64

	// Valid is set when every operand is available.
	Valid bool
}

func (e *IQEntry) updateValid() {
	for i := 0; i < e.NumSrc; i++ {
		if !e.SrcReady[i] {
			e.Valid = false
			return
		}
	}
	e.Valid = !e.Inst.Op.ReadsZero() || e.FlagReady
}

// IssueQueue holds renamed micro-ops until their operands are available.
type IssueQueue struct {
	slots []IQEntry
	used  []bool
	count int
}

// NewIssueQueue creates an issue queue with size slots.
func NewIssueQueue(size int) *IssueQueue {
	return &IssueQueue{
		slots: make([]IQEntry, size),
		used:  make([]bool, size),
	}
}

// Size returns the number of slots.
func (q *IssueQueue) Size() int {
	return len(q.slots)
}

// Len returns the number of occupied slots.
func (q *IssueQueue) Len() int {
	return q.count
}

// Full reports whether every slot is occupied.
func (q *IssueQueue) Full() bool {
	return q.count == len(q.slots)
}

// Insert places e in a free slot. It returns false when the queue is full.
func (q *IssueQueue) Insert(e IQEntry) bool {
	for i := range q.slots {
		if q.used[i] {
			continue
		}
		e.updateValid()
		q.slots[i] = e
		q.used[i] = true
		q.count++
		return true
	}
	return false
}

// Wakeup delivers value to every entry waiting on physical register tag.
func (q *IssueQueue) Wakeup(tag, value int) {
	for i := range q.slots {
		if !q.used[i] {
			continue
		}
		e := &q.slots[i]
		for s := 0; s < e.NumSrc; s++ {
			if !e.SrcReady[s] && e.Src[s] == tag {
				e.SrcValue[s] = value
				e.SrcReady[s] = true
			}
		}
		e.updateValid()
	}
}

// WakeupFlag delivers the zero flag produced by flag setter seq.
func (q *IssueQueue) WakeupFlag(seq uint64, zero bool) {
	for i := range q.slots {
		if !q.used[i] {
			continue
		}
		e := &q.slots[i]
		if e.Inst.Op.ReadsZero() && !e.FlagReady && e.FlagTag == seq {
			e.Zero = zero
			e.FlagReady = true
			e.updateValid()
		}
	}
}

// Select removes and returns the oldest valid entry of class for which
// eligible (if non-nil) holds.
func (q *IssueQueue) Select(class insts.Class, eligible func(*IQEntry) bool) (IQEntry, bool) {
	best := -1
	for i := range q.slots {
		if !q.used[i] {
			continue
		}
		e := &q.slots[i]
		if e.Class != class || !e.Valid {
			continue
		}
		if eligible != nil && !eligible(e) {
			continue
		}
		if best < 0 || e.EnqueueCycle < q.slots[best].EnqueueCycle {
			best = i
		}
	}
	if best < 0 {
		return IQEntry{}, false
	}

	e := q.slots[best]
	q.used[best] = false
	q.slots[best] = IQEntry{}
	q.count--
	return e, true
}

// Snapshot returns the occupied entries, oldest first.
func (q *IssueQueue) Snapshot() []IQEntry {
	out := make([]IQEntry, 0, q.count)
	for i := range q.slots {
		if q.used[i] {
			out = append(out, q.slots[i])
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].EnqueueCycle < out[b].EnqueueCycle
	})
	return out
}

// Reset empties the queue.
func (q *IssueQueue) Reset() {
	for i := range q.slots {
		q.slots[i] = IQEntry{}
		q.used[i] = false
	}
	q.count = 0
}
