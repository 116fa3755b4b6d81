package latency

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TimingConfig holds latency values for the APEX functional units and the
// optional data cache.
type TimingConfig struct {
	// IntegerLatency is the execution latency of the integer unit.
	// The forwarding network assumes single-cycle integer ops. Default: 1.
	IntegerLatency uint64 `yaml:"integer_latency"`

	// MultiplyLatency is the number of cycles between selecting a MUL and
	// broadcasting its result. Default: 3.
	MultiplyLatency uint64 `yaml:"multiply_latency"`

	// DCacheHitLatency is the M2 occupancy of a data-cache hit. Default: 1.
	DCacheHitLatency uint64 `yaml:"dcache_hit_latency"`

	// DCacheMissLatency is the M2 occupancy of a data-cache miss.
	// Default: 10.
	DCacheMissLatency uint64 `yaml:"dcache_miss_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the APEX reference values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		IntegerLatency:    1,
		MultiplyLatency:   3,
		DCacheHitLatency:  1,
		DCacheMissLatency: 10,
	}
}

// LoadConfig loads a TimingConfig from a YAML file and validates it. Fields
// missing from the file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a YAML file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are usable.
func (c *TimingConfig) Validate() error {
	if c.IntegerLatency != 1 {
		return fmt.Errorf("integer_latency must be 1")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DCacheHitLatency == 0 {
		return fmt.Errorf("dcache_hit_latency must be > 0")
	}
	if c.DCacheMissLatency < c.DCacheHitLatency {
		return fmt.Errorf("dcache_miss_latency must be >= dcache_hit_latency")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
