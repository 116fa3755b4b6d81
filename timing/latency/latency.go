// Package latency provides functional-unit timing for the APEX core.
//
// The latency values follow the APEX reference machine and can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/apexsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the cycles from selection to result broadcast for op.
// Memory and jump ops report their fixed two-stage depth; cache misses are
// accounted separately by the memory unit.
func (t *Table) GetLatency(op insts.Op) uint64 {
	switch op.Class() {
	case insts.ClassInteger:
		return t.config.IntegerLatency
	case insts.ClassMultiply:
		return t.config.MultiplyLatency
	case insts.ClassMemory, insts.ClassBranch:
		return 2
	case insts.ClassNone:
		return 0
	}
	return 1
}

// MemoryStageLatency returns the M2 occupancy for a cache hit or miss.
func (t *Table) MemoryStageLatency(hit bool) uint64 {
	if hit {
		return t.config.DCacheHitLatency
	}
	return t.config.DCacheMissLatency
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
