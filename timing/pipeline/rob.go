package pipeline

import "github.com/sarchlab/apexsim/insts"

// ROBEntry is one reorder-buffer slot. Only memory and control ops are
// tracked.
type ROBEntry struct {
	// Seq is unique per enqueued entry and increases in program order.
	Seq uint64

	PC   int
	Inst insts.Instruction

	Src      [insts.MaxSources]int
	SrcReady [insts.MaxSources]bool
	NumSrc   int

	DestPhys int
	DestArch int

	// MemoryReady is set once every source operand is available.
	MemoryReady bool

	// Completed is set when a control op has resolved.
	Completed bool

	// DispatchCycle is the cycle the op entered the core.
	DispatchCycle uint64
}

func (e *ROBEntry) operandsReady() bool {
	for i := 0; i < e.NumSrc; i++ {
		if !e.SrcReady[i] {
			return false
		}
	}
	return true
}

// ReorderBuffer is a circular FIFO of in-flight memory and control ops.
type ReorderBuffer struct {
	entries []ROBEntry
	head    int
	tail    int
	count   int
	nextSeq uint64
}

// NewReorderBuffer creates a reorder buffer with size entries.
func NewReorderBuffer(size int) *ReorderBuffer {
	return &ReorderBuffer{entries: make([]ROBEntry, size), nextSeq: 1}
}

// Size returns the capacity.
func (r *ReorderBuffer) Size() int {
	return len(r.entries)
}

// Len returns the number of occupied entries.
func (r *ReorderBuffer) Len() int {
	return r.count
}

// Full reports whether no entry can be enqueued.
func (r *ReorderBuffer) Full() bool {
	return r.count == len(r.entries)
}

// Empty reports whether the buffer holds no entries.
func (r *ReorderBuffer) Empty() bool {
	return r.count == 0
}

// Enqueue appends e at the tail and returns its sequence number. readyNow
// sets MemoryReady immediately. It returns false when the buffer is full.
func (r *ReorderBuffer) Enqueue(e ROBEntry, readyNow bool) (uint64, bool) {
	if r.Full() {
		return 0, false
	}
	e.Seq = r.nextSeq
	e.MemoryReady = readyNow
	r.nextSeq++

	r.entries[r.tail] = e
	r.tail = (r.tail + 1) % len(r.entries)
	r.count++
	return e.Seq, true
}

// Wakeup marks every source waiting on physical register tag as ready.
func (r *ReorderBuffer) Wakeup(tag int) {
	r.each(func(e *ROBEntry) {
		for s := 0; s < e.NumSrc; s++ {
			if !e.SrcReady[s] && e.Src[s] == tag {
				e.SrcReady[s] = true
			}
		}
	})
}

// MarkReady sets MemoryReady on every entry whose operands are available.
func (r *ReorderBuffer) MarkReady() {
	r.each(func(e *ROBEntry) {
		if !e.MemoryReady && e.operandsReady() {
			e.MemoryReady = true
		}
	})
}

// Complete marks the entry with seq as resolved.
func (r *ReorderBuffer) Complete(seq uint64) bool {
	found := false
	r.each(func(e *ROBEntry) {
		if e.Seq == seq {
			e.Completed = true
			found = true
		}
	})
	return found
}

// Head returns the oldest entry.
func (r *ReorderBuffer) Head() (ROBEntry, bool) {
	if r.Empty() {
		return ROBEntry{}, false
	}
	return r.entries[r.head], true
}

// RetireHead removes and returns the oldest entry.
func (r *ReorderBuffer) RetireHead() (ROBEntry, bool) {
	if r.Empty() {
		return ROBEntry{}, false
	}
	e := r.entries[r.head]
	r.entries[r.head] = ROBEntry{}
	r.head = (r.head + 1) % len(r.entries)
	r.count--
	return e, true
}

// Snapshot returns the entries from head to tail.
func (r *ReorderBuffer) Snapshot() []ROBEntry {
	out := make([]ROBEntry, 0, r.count)
	r.each(func(e *ROBEntry) {
		out = append(out, *e)
	})
	return out
}

// Reset empties the buffer.
func (r *ReorderBuffer) Reset() {
	for i := range r.entries {
		r.entries[i] = ROBEntry{}
	}
	r.head, r.tail, r.count = 0, 0, 0
	r.nextSeq = 1
}

func (r *ReorderBuffer) each(fn func(*ROBEntry)) {
	for i := 0; i < r.count; i++ {
		fn(&r.entries[(r.head+i)%len(r.entries)])
	}
}
