package cache_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c      *cache.Cache
		memory *emu.Memory
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		// 64 words, 2-way, 4-word lines = 8 sets
		config := cache.Config{
			Size:          64,
			Associativity: 2,
			BlockSize:     4,
		}
		c = cache.New(config, cache.NewMemoryBacking(memory))
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			Expect(memory.Write(100, 42)).To(Succeed())

			result := read(c, 100)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Data).To(Equal(42))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			Expect(memory.Write(100, 7)).To(Succeed())

			read(c, 100)
			result := read(c, 100)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(7))
			Expect(c.Stats().HitRate()).To(BeNumerically("==", 0.5))
		})

		It("should hit on other words in the same line", func() {
			Expect(memory.Write(101, 11)).To(Succeed())

			read(c, 100)
			result := read(c, 101)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(11))
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss and write through", func() {
			result := write(c, 200, 5)
			Expect(result.Hit).To(BeFalse())
			Expect(memory.Read(200)).To(Equal(5))

			readResult := read(c, 200)
			Expect(readResult.Hit).To(BeTrue())
			Expect(readResult.Data).To(Equal(5))
		})

		It("should update the resident copy on hit", func() {
			write(c, 200, 1)
			result := write(c, 200, 2)
			Expect(result.Hit).To(BeTrue())
			Expect(read(c, 200).Data).To(Equal(2))
			Expect(memory.Read(200)).To(Equal(2))
		})
	})

	Describe("Eviction", func() {
		It("should evict the LRU block when a set is full", func() {
			// 0, 32 and 64 all map to set 0.
			read(c, 0)
			read(c, 32)
			read(c, 0)

			result := read(c, 64)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(32))

			Expect(c.Contains(0)).To(BeTrue())
			Expect(c.Contains(32)).To(BeFalse())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})
	})

	Describe("Reset", func() {
		It("should invalidate everything", func() {
			read(c, 0)
			read(c, 4)
			Expect(c.ResidentBlocks()).To(ConsistOf(0, 4))

			c.Reset()
			Expect(c.ResidentBlocks()).To(BeEmpty())
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
		})
	})

	Describe("Backing store errors", func() {
		It("should return the fault of a fill past the end of memory", func() {
			small := cache.New(cache.Config{Size: 16, Associativity: 1, BlockSize: 4},
				cache.NewMemoryBacking(emu.NewMemoryWithSize(6)))

			_, err := small.Read(5)
			var fault *emu.MemoryFault
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.Addr).To(Equal(6))
			Expect(small.Contains(4)).To(BeFalse())
		})

		It("should return a failed write-through and drop the line", func() {
			backing := &failingBacking{}
			through := cache.New(cache.Config{Size: 16, Associativity: 1, BlockSize: 4}, backing)
			read(through, 0)

			backing.err = errors.New("bus error")
			_, err := through.Write(1, 9)
			Expect(err).To(MatchError("bus error"))
			Expect(through.Contains(0)).To(BeFalse())
		})
	})

	Describe("Config", func() {
		It("should validate the default config", func() {
			config := cache.DefaultL1DConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.NumSets()).To(Equal(32))
		})

		It("should reject inconsistent geometry", func() {
			Expect(cache.Config{Size: 10, Associativity: 2, BlockSize: 4}.Validate()).NotTo(Succeed())
			Expect(cache.Config{Size: 16, Associativity: 0, BlockSize: 4}.Validate()).NotTo(Succeed())
		})
	})
})

func read(c *cache.Cache, addr int) cache.AccessResult {
	GinkgoHelper()
	result, err := c.Read(addr)
	Expect(err).NotTo(HaveOccurred())
	return result
}

func write(c *cache.Cache, addr, value int) cache.AccessResult {
	GinkgoHelper()
	result, err := c.Write(addr, value)
	Expect(err).NotTo(HaveOccurred())
	return result
}

// failingBacking returns err from every write once it is set.
type failingBacking struct {
	err error
}

func (b *failingBacking) ReadWord(int) (int, error) { return 0, nil }

func (b *failingBacking) WriteWord(int, int) error { return b.err }
