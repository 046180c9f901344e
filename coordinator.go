// Package tipcache is the data layer behind dashboard hover tooltips: a
// small expiring LRU store and a Coordinator that deduplicates, merges,
// throttles and caches entity fetches per key.
package tipcache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultMaxConcurrent = 3
	defaultMergeWindow   = 300 * time.Millisecond
	defaultFailureTTL    = 30 * time.Second
)

// FetchFunc loads the entity for key. It must honor ctx cancellation when
// the transport allows; a result arriving after cancellation is discarded.
type FetchFunc[V any] func(ctx context.Context, key string) (V, error)

// Origin tells how Request satisfied a call.
type Origin int

const (
	FromCache Origin = iota // settled from a fresh cache entry
	Joined                  // attached to the pending call for the key
	Merged                  // reused a call issued within the merge window
	Issued                  // started a new fetch
	Queued                  // waiting behind the concurrency ceiling
	Rejected                // coordinator closed
)

func (o Origin) String() string {
	switch o {
	case FromCache:
		return "cache"
	case Joined:
		return "joined"
	case Merged:
		return "merged"
	case Issued:
		return "issued"
	case Queued:
		return "queued"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// CoordinatorConfig groups the request policy and the backing store config.
type CoordinatorConfig struct {
	MaxConcurrent int
	MergeWindow   time.Duration
	FailureTTL    time.Duration // lifetime of the cached error marker
	Cache         LRUConfig
	Logger        *slog.Logger
}

// DefaultCoordinatorConfig returns three concurrent fetches, a 300ms merge
// window and a 30s failure marker over DefaultLRUConfig.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MaxConcurrent: defaultMaxConcurrent,
		MergeWindow:   defaultMergeWindow,
		FailureTTL:    defaultFailureTTL,
		Cache:         DefaultLRUConfig(),
	}
}

// Validate reports configuration values that cannot be honored.
func (c CoordinatorConfig) Validate() error {
	if c.MaxConcurrent < 0 {
		return configError("MaxConcurrent", c.MaxConcurrent)
	}
	if c.MergeWindow < 0 {
		return configError("MergeWindow", c.MergeWindow)
	}
	if c.FailureTTL < 0 {
		return configError("FailureTTL", c.FailureTTL)
	}
	if c.Cache.Capacity < 0 {
		return configError("Cache.Capacity", c.Cache.Capacity)
	}
	return nil
}

func (c *CoordinatorConfig) fillDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.MergeWindow <= 0 {
		c.MergeWindow = defaultMergeWindow
	}
	if c.FailureTTL <= 0 {
		c.FailureTTL = defaultFailureTTL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// CoordinatorStats counts request outcomes since construction.
type CoordinatorStats struct {
	Fetches   int64
	Hits      int64
	Joins     int64
	Merges    int64
	Queued    int64
	Cancelled int64
	Failures  int64
	InFlight  int
	Waiting   int
	Cache     LRUStats
}

// outcome is what the store keeps per key; err != nil is the failure marker.
type outcome[V any] struct {
	value V
	err   error
}

type recentCall[V any] struct {
	call *Call[V]
	at   time.Time
}

// Coordinator deduplicates, merges, throttles and caches fetches per key.
// All bookkeeping happens under mu before a fetch goroutine starts, so two
// callers can never both issue the same key.
type Coordinator[V any] struct {
	mu    sync.Mutex
	fetch FetchFunc[V]
	cfg   CoordinatorConfig
	log   *slog.Logger
	cache *LRU[string, outcome[V]]

	pending  map[string]*Call[V]
	recent   map[string]recentCall[V]
	queue    []*Call[V]
	inflight int

	stats  CoordinatorStats
	ctx    context.Context // parent of every fetch context
	stop   context.CancelFunc
	wg     sync.WaitGroup  // one per running fetch
	closed bool
	now    func() time.Time
}

// NewCoordinator wires fetch behind an LRU store built from cfg.Cache.
func NewCoordinator[V any](fetch FetchFunc[V], cfg CoordinatorConfig) *Coordinator[V] {
	cfg.fillDefaults()
	ctx, stop := context.WithCancel(context.Background())
	return &Coordinator[V]{
		fetch:   fetch,
		cfg:     cfg,
		log:     cfg.Logger,
		cache:   NewLRU[string, outcome[V]](cfg.Cache),
		pending: make(map[string]*Call[V]),
		recent:  make(map[string]recentCall[V]),
		ctx:     ctx,
		stop:    stop,
		now:     time.Now,
	}
}

// Request returns the call that will carry key's value. The returned call
// may already be settled (cache hit, merged settled call, closed).
func (co *Coordinator[V]) Request(key string) (*Call[V], Origin) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.closed {
		var zero V
		return settledCall(key, zero, ErrClosed), Rejected
	}

	now := co.now()
	co.pruneRecentLocked(now)

	if p, ok := co.pending[key]; ok {
		co.stats.Joins++
		return p, Joined
	}

	// Once the pending entry is gone the recent record is authoritative.
	if r, ok := co.recent[key]; ok && !r.call.cancelled {
		co.stats.Merges++
		return r.call, Merged
	}

	if o, ok := co.cache.Get(key); ok {
		co.stats.Hits++
		return settledCall(key, o.value, o.err), FromCache
	}

	call := newCall(co, key)
	co.pending[key] = call

	if co.inflight >= co.cfg.MaxConcurrent {
		co.queue = append(co.queue, call)
		co.stats.Queued++
		co.log.Debug("request queued", "key", key, "waiting", len(co.queue))
		return call, Queued
	}

	co.startLocked(call, now)
	return call, Issued
}

// Contains reports whether key is cached (fresh) or has a pending call.
// It does not touch recency.
func (co *Coordinator[V]) Contains(key string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()

	if _, ok := co.pending[key]; ok {
		return true
	}
	_, ok := co.cache.Peek(key)
	return ok
}

// Pending reports whether a queued or in-flight call exists for key.
func (co *Coordinator[V]) Pending(key string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	_, ok := co.pending[key]
	return ok
}

// InFlight returns the number of fetches holding a concurrency slot.
func (co *Coordinator[V]) InFlight() int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.inflight
}

// Queued returns the number of calls waiting for a slot.
func (co *Coordinator[V]) Queued() int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return len(co.queue)
}

// Cancel cancels the pending call for key, if any.
func (co *Coordinator[V]) Cancel(key string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()

	call, ok := co.pending[key]
	if !ok {
		return false
	}
	co.cancelLocked(call)
	return true
}

// CancelAll cancels every queued and in-flight call.
func (co *Coordinator[V]) CancelAll() {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.cancelAllLocked()
}

// Stats returns a snapshot of the counters, including the store's.
func (co *Coordinator[V]) Stats() CoordinatorStats {
	co.mu.Lock()
	s := co.stats
	s.InFlight = co.inflight
	s.Waiting = len(co.queue)
	co.mu.Unlock()

	s.Cache = co.cache.Stats()
	return s
}

// Close cancels outstanding calls, waits for their fetch functions to
// return, stops the store janitor and rejects further requests. A fetch
// that ignores its context delays Close until it returns. Idempotent.
func (co *Coordinator[V]) Close() error {
	co.mu.Lock()
	if co.closed {
		co.mu.Unlock()
		return nil
	}
	co.closed = true
	co.cancelAllLocked()
	co.recent = make(map[string]recentCall[V])
	co.mu.Unlock()

	co.stop()
	co.wg.Wait()
	return co.cache.Close()
}

func (co *Coordinator[V]) startLocked(call *Call[V], now time.Time) {
	co.inflight++
	co.stats.Fetches++
	call.state = callInFlight
	call.ctx, call.abort = context.WithCancel(co.ctx)
	co.recent[call.key] = recentCall[V]{call: call, at: now}
	co.wg.Add(1)
	go co.run(call)
}

// run performs the fetch outside the lock and settles under it.
func (co *Coordinator[V]) run(call *Call[V]) {
	defer co.wg.Done()

	v, err := co.fetch(call.ctx, call.key)
	call.abort()

	co.mu.Lock()
	defer co.mu.Unlock()

	co.inflight--
	defer co.drainLocked()

	// Cancelled calls were already settled and unregistered by cancelLocked.
	if call.cancelled {
		co.log.Debug("discarding cancelled result", "key", call.key)
		return
	}
	if co.pending[call.key] == call {
		delete(co.pending, call.key)
	}

	// Store writes only fail with ErrClosed once Close has run.
	switch {
	case IsCancelled(err):
		// reported by the fetch itself: no marker, no merge record
		if r, ok := co.recent[call.key]; ok && r.call == call {
			delete(co.recent, call.key)
		}
		co.log.Debug("fetch cancelled", "key", call.key, "err", err)
		call.settle(v, err)
		return
	case err != nil:
		err = classify(call.key, err)
		co.stats.Failures++
		_ = co.cache.SetWithTTL(call.key, outcome[V]{err: err}, co.cfg.FailureTTL)
		co.log.Warn("fetch failed", "key", call.key, "err", err)
	default:
		_ = co.cache.Set(call.key, outcome[V]{value: v})
	}

	if r, ok := co.recent[call.key]; ok && r.call == call {
		co.recent[call.key] = recentCall[V]{call: call, at: co.now()}
	}
	call.settle(v, err)
}

// drainLocked hands freed slots to the longest waiting calls. A waiter whose
// key got cached meanwhile is answered without taking a slot.
func (co *Coordinator[V]) drainLocked() {
	for len(co.queue) > 0 && co.inflight < co.cfg.MaxConcurrent {
		call := co.queue[0]
		co.queue[0] = nil
		co.queue = co.queue[1:]

		if call.cancelled {
			continue
		}
		if o, ok := co.cache.Get(call.key); ok {
			delete(co.pending, call.key)
			co.stats.Hits++
			call.settle(o.value, o.err)
			continue
		}
		co.startLocked(call, co.now())
	}
}

func (co *Coordinator[V]) cancelLocked(call *Call[V]) {
	if call.cancelled || call.isSettled() {
		return
	}
	call.cancelled = true
	co.stats.Cancelled++

	if co.pending[call.key] == call {
		delete(co.pending, call.key)
	}
	if r, ok := co.recent[call.key]; ok && r.call == call {
		delete(co.recent, call.key)
	}

	switch call.state {
	case callQueued:
		for i, q := range co.queue {
			if q == call {
				co.queue = append(co.queue[:i], co.queue[i+1:]...)
				break
			}
		}
	case callInFlight:
		// The slot stays taken until run observes the fetch returning.
		call.abort()
	}

	var zero V
	call.settle(zero, ErrCancelled)
}

func (co *Coordinator[V]) cancelAllLocked() {
	for _, call := range co.pending {
		co.cancelLocked(call)
	}
	co.queue = nil
}

func (co *Coordinator[V]) pruneRecentLocked(now time.Time) {
	for k, r := range co.recent {
		if now.Sub(r.at) >= co.cfg.MergeWindow && r.call.isSettled() {
			delete(co.recent, k)
		}
	}
}
