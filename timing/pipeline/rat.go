package pipeline

// RAT is the register alias table mapping architectural to physical ids.
type RAT struct {
	table []int
	regs  *PhysRegFile
}

// NewRAT creates an alias table where architectural register i maps to
// physical register i.
func NewRAT(arch int, regs *PhysRegFile) *RAT {
	r := &RAT{table: make([]int, arch), regs: regs}
	r.Reset()
	return r
}

// Reset restores the identity mapping.
func (r *RAT) Reset() {
	for i := range r.table {
		r.table[i] = i
	}
}

// Lookup returns the physical register currently holding arch.
func (r *RAT) Lookup(arch int) int {
	return r.table[arch]
}

// Rename allocates a fresh physical register for arch. The previous mapping
// is superseded. It returns false, changing nothing, when no physical
// register is free.
func (r *RAT) Rename(arch int) (int, bool) {
	id, ok := r.regs.Allocate()
	if !ok {
		return -1, false
	}
	old := r.table[arch]
	r.table[arch] = id
	r.regs.Supersede(old)
	return id, true
}

// Snapshot returns a copy of the mapping.
func (r *RAT) Snapshot() []int {
	out := make([]int, len(r.table))
	copy(out, r.table)
	return out
}
