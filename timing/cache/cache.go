// Package cache models the optional APEX L1 data cache using Akita cache
// components.
//
// The cache is word addressed, matching APEX data memory. It tracks tags
// and LRU state in an Akita directory and keeps a copy of each resident
// block. Stores write through to the backing store, so memory always holds
// the architectural value and the cache only decides hit or miss timing.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters. Sizes are in words.
type Config struct {
	// Size is the total capacity in words.
	Size int `yaml:"size"`
	// Associativity is the number of ways.
	Associativity int `yaml:"associativity"`
	// BlockSize is the line size in words.
	BlockSize int `yaml:"block_size"`
}

// DefaultL1DConfig returns the default data cache: 256 words, 2-way,
// 4-word lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          256,
		Associativity: 2,
		BlockSize:     4,
	}
}

// NumSets returns the number of sets implied by the configuration.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry is consistent.
func (c Config) Validate() error {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("cache associativity and block size must be > 0")
	}
	if c.Size <= 0 || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("cache size %d is not a multiple of associativity*block size", c.Size)
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Data is the word read (for load operations).
	Data int
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the block address of the evicted line.
	EvictedAddr int
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits over total accesses, or 0 before any access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore is the next level in the memory hierarchy.
type BackingStore interface {
	// ReadWord fetches one word from the backing store.
	ReadWord(addr int) (int, error)
	// WriteWord stores one word to the backing store.
	WriteWord(addr int, value int) error
}

// Cache is a write-through, write-allocate L1 data cache.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage indexed by (setID * associativity + wayID)
	dataStore [][]int

	stats Statistics

	backing BackingStore
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.NumSets()
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]int, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]int, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr int) int {
	return (addr / c.config.BlockSize) * c.config.BlockSize
}

// lookup returns the resident block for addr, or nil.
func (c *Cache) lookup(addr int) *akitacache.Block {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		return block
	}
	return nil
}

// Contains reports whether addr is resident without touching LRU state.
func (c *Cache) Contains(addr int) bool {
	return c.lookup(addr) != nil
}

// Read performs a cache read of the word at addr. A backing store error
// during a line fill is returned and leaves the line invalid.
func (c *Cache) Read(addr int) (AccessResult, error) {
	c.stats.Reads++

	if block := c.lookup(addr); block != nil {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr - c.blockAddr(addr)
		return AccessResult{
			Hit:  true,
			Data: c.dataStore[c.blockIndex(block)][offset],
		}, nil
	}

	c.stats.Misses++
	result, block, err := c.fill(addr)
	if err != nil {
		return result, err
	}
	offset := addr - c.blockAddr(addr)
	result.Data = c.dataStore[c.blockIndex(block)][offset]
	return result, nil
}

// Write stores value at addr, updating the resident copy and the backing
// store.
func (c *Cache) Write(addr int, value int) (AccessResult, error) {
	c.stats.Writes++

	var result AccessResult
	block := c.lookup(addr)
	if block != nil {
		c.stats.Hits++
		c.directory.Visit(block)
		result.Hit = true
	} else {
		c.stats.Misses++
		var err error
		if result, block, err = c.fill(addr); err != nil {
			return result, err
		}
	}

	if c.backing != nil {
		if err := c.backing.WriteWord(addr, value); err != nil {
			block.IsValid = false
			return result, err
		}
	}
	offset := addr - c.blockAddr(addr)
	c.dataStore[c.blockIndex(block)][offset] = value

	return result, nil
}

// fill brings the block holding addr into the cache.
func (c *Cache) fill(addr int) (AccessResult, *akitacache.Block, error) {
	var result AccessResult
	base := c.blockAddr(addr)

	victim := c.directory.FindVictim(uint64(base))
	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = int(victim.Tag)
	}
	victim.IsValid = false

	data := c.dataStore[c.blockIndex(victim)]
	for i := range data {
		data[i] = 0
		if c.backing == nil {
			continue
		}
		v, err := c.backing.ReadWord(base + i)
		if err != nil {
			return result, nil, fmt.Errorf("cache fill of block %d: %w", base, err)
		}
		data[i] = v
	}

	victim.Tag = uint64(base)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return result, victim, nil
}

// ResidentBlocks returns the block addresses currently cached, in set/way
// order.
func (c *Cache) ResidentBlocks() []int {
	var blocks []int
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				blocks = append(blocks, int(block.Tag))
			}
		}
	}
	return blocks
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
