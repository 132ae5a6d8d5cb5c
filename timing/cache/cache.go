// Package cache models a single-level set-associative cache using Akita
// cache components.
//
// The cache tracks presence and tags only. No data is stored: the
// simulation never needs the values behind an address, only whether the
// line is resident. Hit and miss are both normal outcomes; an access
// never fails.
package cache

import (
	"errors"
	"fmt"
	"math"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// MaxModeledSize is the upper bound on Config.ModeledSize. Requesting a
// larger cache is a configuration error.
const MaxModeledSize = 10240

// ErrCacheTooLarge reports a configuration whose modeled size exceeds
// MaxModeledSize.
var ErrCacheTooLarge = errors.New("cache exceeds maximum modeled size")

// Config holds cache configuration parameters.
type Config struct {
	// IndexBits selects the number of sets (2^IndexBits).
	IndexBits int
	// BlockWords is the number of 4-byte words per block.
	BlockWords int
	// Associativity is the number of ways per set.
	Associativity int
}

// BlockOffsetBits returns the number of address bits consumed by the
// block offset: ceil(log2(BlockWords * 4)).
func (c Config) BlockOffsetBits() int {
	return int(math.Ceil(math.Log2(float64(c.BlockWords * 4))))
}

// NumSets returns the number of sets.
func (c Config) NumSets() int {
	return 1 << c.IndexBits
}

// ModeledSize returns the modeled cache size used for the configuration
// bound check. The formula accounts for data bits plus tag and valid
// overhead per line.
func (c Config) ModeledSize() int {
	return c.Associativity * c.NumSets() *
		(32*c.BlockWords + 33 - c.IndexBits - c.BlockOffsetBits())
}

// Validate checks the configuration against MaxModeledSize.
func (c Config) Validate() error {
	if c.IndexBits < 0 || c.BlockWords < 1 || c.Associativity < 1 {
		return fmt.Errorf("invalid cache configuration: "+
			"indexBits=%d blockWords=%d associativity=%d",
			c.IndexBits, c.BlockWords, c.Associativity)
	}

	if size := c.ModeledSize(); size > MaxModeledSize {
		return fmt.Errorf("%w: %d > %d", ErrCacheTooLarge, size, MaxModeledSize)
	}

	return nil
}

// AccessResult describes the outcome of one cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Address is the accessed address.
	Address uint32
	// Tag is the address with index and block offset bits removed.
	Tag uint32
	// SetIndex is the set the address maps to.
	SetIndex int
}

// Statistics holds cache performance counters. Hits + Misses always
// equals Accesses.
type Statistics struct {
	Accesses uint64
	Hits     uint64
	Misses   uint64
}

// MissRate returns Misses / Accesses. The second return value is false
// when no access has happened yet.
func (s Statistics) MissRate() (float64, bool) {
	if s.Accesses == 0 {
		return 0, false
	}
	return float64(s.Misses) / float64(s.Accesses), true
}

// Cache is a set-associative cache with true LRU replacement.
type Cache struct {
	config          Config
	blockOffsetBits int

	// Akita cache directory for tag/state and LRU management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// New creates a cache from a validated configuration. It returns
// ErrCacheTooLarge when the modeled size exceeds the bound.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	blockOffsetBits := config.BlockOffsetBits()
	blockSize := 1 << blockOffsetBits

	return &Cache{
		config:          config,
		blockOffsetBits: blockOffsetBits,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			blockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
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

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

// Access looks up addr. On a hit the line becomes most recently used.
// On a miss the first invalid way of the set is filled, or, with the set
// full, the least recently used line is re-tagged; either way the line
// becomes most recently used.
func (c *Cache) Access(addr uint32) AccessResult {
	result := AccessResult{
		Address:  addr,
		Tag:      addr >> (c.blockOffsetBits + c.config.IndexBits),
		SetIndex: int(addr>>c.blockOffsetBits) & (c.config.NumSets() - 1),
	}

	c.stats.Accesses++

	// The directory tracks lines by block-aligned address.
	blockSize := uint64(1) << c.blockOffsetBits
	blockAddr := uint64(addr) / blockSize * blockSize

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		result.Hit = true
		return result
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// Cannot happen with a positive associativity.
		return result
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	c.directory.Visit(victim)

	return result
}
