package grayscale

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a document by size and content hash.
type Fingerprint struct {
	Size int
	Hash uint64
}

// FingerprintOf computes the fingerprint of data.
func FingerprintOf(data []byte) Fingerprint {
	return Fingerprint{Size: len(data), Hash: xxhash.Sum64(data)}
}

// cache is a bounded map that evicts the oldest insertion when full.
type cache struct {
	mu      sync.Mutex
	cap     int
	entries map[Fingerprint][]byte
	order   []Fingerprint
	hits    uint64
	misses  uint64
}

func newCache(capacity int) *cache {
	return &cache{cap: capacity, entries: make(map[Fingerprint][]byte)}
}

func (c *cache) get(key Fingerprint) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

func (c *cache) put(key Fingerprint, value []byte) {
	if c.cap <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	for len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

// CacheStats reports cache occupancy and hit counts.
type CacheStats struct {
	Entries  int    `json:"entries"`
	Capacity int    `json:"capacity"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

func (c *cache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Capacity: c.cap, Hits: c.hits, Misses: c.misses}
}
