package cache

import (
	"github.com/sarchlab/apexsim/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore. Accesses outside memory
// return the *emu.MemoryFault reported by the memory.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadWord fetches one word from the backing memory.
func (m *MemoryBacking) ReadWord(addr int) (int, error) {
	return m.memory.Read(addr)
}

// WriteWord stores one word to the backing memory.
func (m *MemoryBacking) WriteWord(addr int, value int) error {
	return m.memory.Write(addr, value)
}
