package embedding

import (
	"container/list"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/go-crypt/x/blake2b"
)

// Cache stores embeddings by key. Implementations are safe for concurrent use.
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, value []float32)
}

// CacheKey returns the cache key for text embedded by modelID at the given dimension:
// "<model>:<dims>:<blake2b of text>". Vectors of a model reconfigured to another
// dimension never collide with the old ones.
func CacheKey(modelID string, dims int, text string) string {
	h, _ := blake2b.New(32, nil)
	_, _ = h.Write([]byte(text))
	return modelID + ":" + strconv.Itoa(dims) + ":" + hex.EncodeToString(h.Sum(nil))
}

// EmbeddingCache is an in-memory LRU cache for embeddings.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns a copy of the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	// Exclusive lock: a hit reorders the LRU list.
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return append([]float32(nil), elem.Value.(*cacheEntry).value...), true
	}
	return nil, false
}

// Set stores a copy of the embedding for key, evicting the oldest entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	if c.capacity <= 0 {
		return
	}
	value = append([]float32(nil), value...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
