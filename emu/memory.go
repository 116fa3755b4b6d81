package emu

import (
	"errors"
	"fmt"
)

// DefaultDataMemorySize is the number of words of APEX data memory.
const DefaultDataMemorySize = 4096

// ErrAddressOutOfRange is returned for data accesses outside memory.
var ErrAddressOutOfRange = errors.New("data address out of range")

// MemoryFault describes a failed data memory access.
type MemoryFault struct {
	// PC is the program counter of the faulting instruction, if known.
	PC int
	// Addr is the effective word address that was accessed.
	Addr int
	// Write is true for stores.
	Write bool
}

// Error implements the error interface.
func (f *MemoryFault) Error() string {
	kind := "load"
	if f.Write {
		kind = "store"
	}
	return fmt.Sprintf("%s at pc %d: address %d: %v", kind, f.PC, f.Addr, ErrAddressOutOfRange)
}

// Unwrap returns ErrAddressOutOfRange.
func (f *MemoryFault) Unwrap() error {
	return ErrAddressOutOfRange
}

// Memory is word-addressed APEX data memory.
type Memory struct {
	words []int
}

// NewMemory creates a zeroed data memory of DefaultDataMemorySize words.
func NewMemory() *Memory {
	return NewMemoryWithSize(DefaultDataMemorySize)
}

// NewMemoryWithSize creates a zeroed data memory of the given number of words.
func NewMemoryWithSize(size int) *Memory {
	return &Memory{words: make([]int, size)}
}

// Size returns the number of addressable words.
func (m *Memory) Size() int {
	return len(m.words)
}

// InRange reports whether addr is a valid word address.
func (m *Memory) InRange(addr int) bool {
	return addr >= 0 && addr < len(m.words)
}

// Read returns the word at addr.
func (m *Memory) Read(addr int) (int, error) {
	if !m.InRange(addr) {
		return 0, &MemoryFault{Addr: addr}
	}
	return m.words[addr], nil
}

// Write stores value at addr.
func (m *Memory) Write(addr, value int) error {
	if !m.InRange(addr) {
		return &MemoryFault{Addr: addr, Write: true}
	}
	m.words[addr] = value
	return nil
}

// Snapshot returns a copy of the memory contents.
func (m *Memory) Snapshot() []int {
	out := make([]int, len(m.words))
	copy(out, m.words)
	return out
}

// NonZero returns the addresses holding non-zero data, in ascending order,
// up to limit entries (0 means no limit).
func (m *Memory) NonZero(limit int) []int {
	var addrs []int
	for addr, v := range m.words {
		if v == 0 {
			continue
		}
		addrs = append(addrs, addr)
		if limit > 0 && len(addrs) == limit {
			break
		}
	}
	return addrs
}

// Reset zeroes all words.
func (m *Memory) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}
