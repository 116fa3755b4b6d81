package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/timing/cache"
	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// dcacheConfig enables the optional L1 data cache.
type dcacheConfig struct {
	Enabled      bool `yaml:"enabled"`
	cache.Config `yaml:",inline"`
}

// Machine is the full simulated machine read from a YAML file:
//
//	pipeline:
//	  phys_registers: 48
//	  issue_queue_size: 24
//	timing:
//	  multiply_latency: 3
//	dcache:
//	  enabled: true
//	  size: 256
//
// Omitted fields keep their defaults.
type Machine struct {
	Pipeline pipeline.Config      `yaml:"pipeline"`
	Timing   latency.TimingConfig `yaml:"timing"`
	DCache   dcacheConfig         `yaml:"dcache"`
}

// DefaultMachine returns the APEX reference machine without a data cache.
func DefaultMachine() *Machine {
	return &Machine{
		Pipeline: pipeline.DefaultConfig(),
		Timing:   *latency.DefaultTimingConfig(),
		DCache:   dcacheConfig{Config: cache.DefaultL1DConfig()},
	}
}

// LoadMachine reads a machine file on top of the defaults. An empty path
// returns the defaults.
func LoadMachine(path string) (*Machine, error) {
	m := DefaultMachine()
	if path == "" {
		return m, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open machine config: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse machine config %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config %s: %w", path, err)
	}
	return m, nil
}

// Validate checks every section.
func (m *Machine) Validate() error {
	if err := m.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := m.Timing.Validate(); err != nil {
		return fmt.Errorf("timing: %w", err)
	}
	if m.DCache.Enabled {
		if err := m.DCache.Config.Validate(); err != nil {
			return fmt.Errorf("dcache: %w", err)
		}
		if emu.DefaultDataMemorySize%m.DCache.BlockSize != 0 {
			return fmt.Errorf("dcache: block size %d does not divide data memory size %d",
				m.DCache.BlockSize, emu.DefaultDataMemorySize)
		}
	}
	return nil
}

// Options converts the machine into pipeline options.
func (m *Machine) Options(logger *logrus.Logger) []pipeline.PipelineOption {
	opts := []pipeline.PipelineOption{
		pipeline.WithConfig(m.Pipeline),
		pipeline.WithLatencyTable(latency.NewTableWithConfig(m.Timing.Clone())),
		pipeline.WithLogger(logger),
	}
	if m.DCache.Enabled {
		opts = append(opts, pipeline.WithDCache(m.DCache.Config))
	}
	return opts
}
