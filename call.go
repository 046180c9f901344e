package tipcache

import (
	"context"
	"sync/atomic"
)

type callState uint8

const (
	callQueued callState = iota
	callInFlight
	callSettled
)

// Call is the shared handle for one key's outstanding or finished request.
// Every caller joined to the same fetch receives the same *Call.
type Call[V any] struct {
	key  string
	co   *Coordinator[V]
	done chan struct{}

	// guarded by co.mu until done is closed, immutable afterwards
	state     callState
	cancelled bool
	value     V
	err       error
	settled   atomic.Bool

	ctx   context.Context
	abort context.CancelFunc
}

func newCall[V any](co *Coordinator[V], key string) *Call[V] {
	return &Call[V]{
		key:   key,
		co:    co,
		done:  make(chan struct{}),
		state: callQueued,
		abort: func() {},
	}
}

// settledCall builds a call that is already resolved, e.g. a cache hit.
func settledCall[V any](key string, v V, err error) *Call[V] {
	c := &Call[V]{key: key, done: make(chan struct{}), abort: func() {}}
	c.settle(v, err)
	return c
}

// Key returns the requested key.
func (c *Call[V]) Key() string { return c.key }

// Done is closed once the call has a value, an error or was cancelled.
func (c *Call[V]) Done() <-chan struct{} { return c.done }

// Result returns the outcome without blocking; ok is false while pending.
func (c *Call[V]) Result() (v V, ok bool, err error) {
	if !c.settled.Load() {
		return v, false, nil
	}
	return c.value, true, c.err
}

// Wait blocks until the call settles or ctx is done. A done ctx only
// abandons the wait; it does not cancel the call for other holders.
func (c *Call[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Cancel withdraws the call: waiters get ErrCancelled and a late result
// is neither cached nor handed to queued callers.
func (c *Call[V]) Cancel() {
	if c.co == nil {
		return
	}
	c.co.mu.Lock()
	defer c.co.mu.Unlock()
	c.co.cancelLocked(c)
}

func (c *Call[V]) isSettled() bool { return c.settled.Load() }

// settle publishes the outcome exactly once.
func (c *Call[V]) settle(v V, err error) {
	if c.settled.Load() {
		return
	}
	c.value = v
	c.err = err
	c.state = callSettled
	c.settled.Store(true)
	close(c.done)
}
