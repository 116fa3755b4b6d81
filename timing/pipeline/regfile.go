package pipeline

// PhysReg is one physical register.
type PhysReg struct {
	Value int
	// Ready is set once the producer has written Value.
	Ready bool
	// Allocated is set while some rename owns the register.
	Allocated bool
	// Superseded is set once a later rename of the same architectural
	// register exists. A superseded register is freed as soon as it is ready.
	Superseded bool
}

// PhysRegFile is the flat physical register file.
type PhysRegFile struct {
	regs []PhysReg
	arch int
}

// NewPhysRegFile creates size physical registers. The first arch of them
// hold the reset architectural state and start ready and allocated.
func NewPhysRegFile(size, arch int) *PhysRegFile {
	f := &PhysRegFile{regs: make([]PhysReg, size), arch: arch}
	f.Reset()
	return f
}

// Reset restores the power-on state.
func (f *PhysRegFile) Reset() {
	for i := range f.regs {
		f.regs[i] = PhysReg{}
		if i < f.arch {
			f.regs[i].Ready = true
			f.regs[i].Allocated = true
		}
	}
}

// Len returns the number of physical registers.
func (f *PhysRegFile) Len() int {
	return len(f.regs)
}

// FreeCount returns the number of unallocated registers.
func (f *PhysRegFile) FreeCount() int {
	n := 0
	for i := range f.regs {
		if !f.regs[i].Allocated {
			n++
		}
	}
	return n
}

// Allocate claims the lowest-numbered free register. It returns false when
// every register is allocated.
func (f *PhysRegFile) Allocate() (int, bool) {
	for i := range f.regs {
		if !f.regs[i].Allocated {
			f.regs[i] = PhysReg{Allocated: true}
			return i, true
		}
	}
	return -1, false
}

// CommitWriteback stores value and marks the register ready.
func (f *PhysRegFile) CommitWriteback(id, value int) {
	f.regs[id].Value = value
	f.regs[id].Ready = true
}

// Free releases the register.
func (f *PhysRegFile) Free(id int) {
	f.regs[id].Allocated = false
	f.regs[id].Superseded = false
}

// Supersede records that a newer mapping replaced id.
func (f *PhysRegFile) Supersede(id int) {
	f.regs[id].Superseded = true
	f.releaseIfDead(id)
}

// releaseIfDead frees id if it is ready and superseded. Every consumer has
// captured the value by then and no future lookup can name it.
func (f *PhysRegFile) releaseIfDead(id int) {
	r := &f.regs[id]
	if r.Allocated && r.Ready && r.Superseded {
		f.Free(id)
	}
}

// Ready reports whether id holds a produced value.
func (f *PhysRegFile) Ready(id int) bool {
	return f.regs[id].Ready
}

// Value returns the value held by id.
func (f *PhysRegFile) Value(id int) int {
	return f.regs[id].Value
}

// Snapshot returns a copy of every register.
func (f *PhysRegFile) Snapshot() []PhysReg {
	out := make([]PhysReg, len(f.regs))
	copy(out, f.regs)
	return out
}
