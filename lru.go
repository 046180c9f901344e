package tipcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/tipcache/internal/dlist"
)

const (
	// DefaultExpiration for SetWithTTL means "use LRUConfig.TTL".
	DefaultExpiration time.Duration = 0

	defaultCapacity        = 10
	defaultEntryTTL        = 10 * time.Minute
	defaultCleanupInterval = time.Hour
)

// LRUConfig sizes the store and its expiry janitor.
type LRUConfig struct {
	Capacity        int
	TTL             time.Duration // age after which an entry is expired
	CleanupInterval time.Duration // <= 0 disables the janitor; lazy expiry on Get still applies
}

// DefaultLRUConfig matches the dashboard: ten entries, ten minutes, hourly sweep.
func DefaultLRUConfig() LRUConfig {
	return LRUConfig{
		Capacity:        defaultCapacity,
		TTL:             defaultEntryTTL,
		CleanupInterval: defaultCleanupInterval,
	}
}

func (c *LRUConfig) fillDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = defaultCapacity
	}
	if c.TTL <= 0 {
		c.TTL = defaultEntryTTL
	}
}

// LRUStats is a point-in-time view of the store counters.
type LRUStats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Size        int
	Capacity    int
	HitRatio    float64
}

// item is the payload of a list node.
type item[V any] struct {
	value V
	stamp int64 // unix ns of the last Set
	ttl   time.Duration
}

func (it *item[V]) expired(now int64) bool {
	return now-it.stamp > it.ttl.Nanoseconds()
}

// LRU is a fixed-capacity cache with strict least-recently-used eviction.
// The list head is the LRU end, the tail the MRU end; index maps key → node.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	index map[K]*dlist.Node[K, item[V]]
	order *dlist.List[K, item[V]]
	cfg   LRUConfig

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    int32
	now       func() time.Time
}

// NewLRU builds a store and starts the janitor when CleanupInterval > 0.
func NewLRU[K comparable, V any](cfg LRUConfig) *LRU[K, V] {
	cfg.fillDefaults()
	c := &LRU[K, V]{
		index:   make(map[K]*dlist.Node[K, item[V]], cfg.Capacity),
		order:   dlist.New[K, item[V]](),
		cfg:     cfg,
		closeCh: make(chan struct{}),
		now:     time.Now,
	}
	if cfg.CleanupInterval > 0 {
		go c.cleanupWorker()
	}
	return c
}

// Get returns the value and moves the entry to the MRU end.
// An expired entry is dropped and reported as a miss.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	var zero V
	if atomic.LoadInt32(&c.closed) == 1 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if n.Value.expired(c.now().UnixNano()) {
		c.removeLocked(n)
		c.expirations++
		c.misses++
		return zero, false
	}

	c.order.MoveToEnd(n)
	c.hits++
	return n.Value.value, true
}

// Peek reads without touching recency or counters.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	var zero V
	if atomic.LoadInt32(&c.closed) == 1 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok || n.Value.expired(c.now().UnixNano()) {
		return zero, false
	}
	return n.Value.value, true
}

// Set stores value with the configured TTL.
func (c *LRU[K, V]) Set(key K, value V) error {
	return c.SetWithTTL(key, value, DefaultExpiration)
}

// SetWithTTL inserts or updates key. Inserting into a full store evicts
// exactly one entry, the least recently used.
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClosed
	}
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	it := item[V]{value: value, stamp: c.now().UnixNano(), ttl: ttl}

	// In-place update keeps the node and promotes it.
	if n, ok := c.index[key]; ok {
		n.Value = it
		c.order.MoveToEnd(n)
		return nil
	}

	if c.order.Len() >= c.cfg.Capacity {
		if victim := c.order.RemoveFirst(); victim != nil {
			delete(c.index, victim.Key)
			c.evictions++
		}
	}
	c.index[key] = c.order.AddLast(key, it)
	return nil
}

// Delete removes key if present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		return false
	}
	c.removeLocked(n)
	return true
}

// ClearExpired drops every entry older than its TTL and returns how many
// were removed. O(n); capacity is small.
func (c *LRU[K, V]) ClearExpired() int {
	if atomic.LoadInt32(&c.closed) == 1 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	removed := 0
	for n := c.order.Front(); n != nil; {
		next := n.Next() // capture before unlinking
		if n.Value.expired(now) {
			c.removeLocked(n)
			removed++
		}
		n = next
	}
	c.expirations += int64(removed)
	return removed
}

// Keys lists keys from least to most recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for n := c.order.Front(); n != nil; n = n.Next() {
		keys = append(keys, n.Key)
	}
	return keys
}

// Len returns the number of stored entries, expired or not.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the store.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[K]*dlist.Node[K, item[V]], c.cfg.Capacity)
	c.order = dlist.New[K, item[V]]()
}

// Stats returns counters and the hit ratio.
func (c *LRU[K, V]) Stats() LRUStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := LRUStats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Size:        c.order.Len(),
		Capacity:    c.cfg.Capacity,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Close stops the janitor and empties the store. Idempotent.
func (c *LRU[K, V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.Clear()
		atomic.StoreInt32(&c.closed, 1)
	})
	return nil
}

func (c *LRU[K, V]) removeLocked(n *dlist.Node[K, item[V]]) {
	delete(c.index, n.Key)
	c.order.Remove(n)
}

// cleanupWorker runs ClearExpired on every tick until Close.
func (c *LRU[K, V]) cleanupWorker() {
	ticker := time.NewTicker(c.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.ClearExpired()
		case <-c.closeCh:
			return
		}
	}
}
