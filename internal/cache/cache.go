// Package cache implements the evaluator's multi-tier cache: a
// permanent node-id-keyed cache, a speculative tracker whose writes
// unwind on scope exit, and an incomplete-type tracker for fixed-point
// flow resolution. Grounded on internal/module/loader.go's
// mutex-guarded map-plus-stack shape (its `cache`/`mu` pair and its
// loadStack push/pop idiom), retargeted from module identities to AST
// node ids and from cycle detection to undo-on-exit speculation.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/typeeval/core/internal/types"
)

// GrowthThreshold is the historical tuned cache-size guard, used as the
// LRU capacity New() bounds the permanent cache at.
const GrowthThreshold = 750_000

// entry is one permanent-cache slot: the resolved type plus whether it
// was written while an incomplete frame was active (never promoted to
// a real permanent hit until that frame clears).
type entry struct {
	typ        types.Type
	incomplete bool
}

// speculativeFrame is one level of the speculative-tracker stack: the
// set of node ids this frame wrote, deleted in full when the frame
// pops, mirroring loader.go's loadStack-scoped cleanup.
type speculativeFrame struct {
	written map[uint64]bool
}

// Cache is the evaluator's single shared cache instance. All tiers
// live on one struct, since every cache a run needs lives inside the
// evaluator instance; access is single-threaded-cooperative but
// guarded by a mutex anyway since drivers may hold a reference across
// goroutine-scheduled cancellation checks.
type Cache struct {
	mu sync.Mutex

	// permanent is the bounded, LRU-evicting backing store for every
	// tier's writes: §4.8's "~750000 entries" growth guard is the LRU's
	// own capacity rather than a separate counter a driver polls, so a
	// long-running evaluator session genuinely cannot grow past
	// GrowthThreshold entries — the least-recently-touched node is
	// evicted automatically instead. A driver working file-by-file
	// still calls Reset between files, since LRU recency doesn't know a
	// whole file's entries just went stale together.
	permanent *lru.Cache[uint64, *entry]

	speculative []*speculativeFrame
	incompleteDepth int

	returnInferenceDepth int

	// DebugMode gates cancellation tracing the same explicit-field
	// convention Evaluator.DebugMode uses for its own trace, rather
	// than a package-level logger.
	DebugMode bool
	trace     []string
}

// ReturnInferenceLimit bounds the call-site-contextual return-type
// inference stack.
const ReturnInferenceLimit = 3

// New builds an empty Cache bounded at GrowthThreshold entries.
func New() *Cache {
	return NewWithCapacity(GrowthThreshold)
}

// NewWithCapacity builds an empty Cache with a caller-chosen LRU
// capacity, exposed mainly so eviction behavior can be exercised
// against a small bound in tests without looping GrowthThreshold
// times.
func NewWithCapacity(capacity int) *Cache {
	permanent, _ := lru.New[uint64, *entry](capacity)
	return &Cache{permanent: permanent}
}

// Get returns the permanently cached type for nodeID, if any.
// Incomplete entries never satisfy a Get: a caller under fixed-point
// iteration re-derives the type, matching §4.8's "not written to the
// permanent cache" rule for incomplete writes.
func (c *Cache) Get(nodeID uint64) (types.Type, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.permanent.Get(nodeID)
	if !ok || e.incomplete {
		return nil, false
	}
	return e.typ, true
}

// Set writes a type for nodeID. Inside an active speculative frame the
// write is recorded for undo on that frame's Pop; inside an active
// incomplete frame the entry is marked incomplete and excluded from
// Get until the incomplete frame clears. Once the cache holds
// GrowthThreshold entries, this evicts the least-recently-touched one.
func (c *Cache) Set(nodeID uint64, t types.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permanent.Add(nodeID, &entry{typ: t, incomplete: c.incompleteDepth > 0})
	if len(c.speculative) > 0 {
		top := c.speculative[len(c.speculative)-1]
		top.written[nodeID] = true
	}
}

// Size reports the permanent cache's current entry count. Bounded by
// GrowthThreshold via LRU eviction, so unlike a bare map this can
// never itself signal runaway growth — it's exposed for drivers that
// still want to observe occupancy (and for Reset's own tests).
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permanent.Len()
}

// PushSpeculative opens a new speculative frame. Every Set performed
// before the matching PopSpeculative is undone when it returns,
// regardless of nesting depth — speculative contexts nest per §4.8.
func (c *Cache) PushSpeculative() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speculative = append(c.speculative, &speculativeFrame{written: map[uint64]bool{}})
}

// PopSpeculative closes the innermost speculative frame, deleting
// every cache entry it recorded.
func (c *Cache) PopSpeculative() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.speculative) == 0 {
		return
	}
	top := c.speculative[len(c.speculative)-1]
	c.speculative = c.speculative[:len(c.speculative)-1]
	for id := range top.written {
		c.permanent.Remove(id)
	}
}

// CommitSpeculative closes the innermost speculative frame without
// undoing its writes, promoting them to ordinary permanent entries.
// Used by a cancellable entry-point wrapper that only needs to roll
// back the cancelled path, not every speculative probe.
func (c *Cache) CommitSpeculative() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.speculative) == 0 {
		return
	}
	c.speculative = c.speculative[:len(c.speculative)-1]
}

// Speculate runs f inside a speculative frame and always undoes its
// cache writes afterward, an RAII-guard shape for probes that must
// never leave a trace on failure.
func (c *Cache) Speculate(f func()) {
	c.PushSpeculative()
	defer c.PopSpeculative()
	f()
}

// PushIncomplete opens an incomplete-type frame: cache writes made
// while any such frame is active are excluded from Get and cleared
// entirely once the outermost frame leaves.
func (c *Cache) PushIncomplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incompleteDepth++
}

// PopIncomplete closes one incomplete-type frame. When the last one
// closes, every entry still marked incomplete is purged — a cyclic
// reference that never reached a fixed point leaves no residue.
func (c *Cache) PopIncomplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incompleteDepth == 0 {
		return
	}
	c.incompleteDepth--
	if c.incompleteDepth == 0 {
		for _, id := range c.permanent.Keys() {
			if e, ok := c.permanent.Peek(id); ok && e.incomplete {
				c.permanent.Remove(id)
			}
		}
	}
}

// Incomplete runs f inside an incomplete-type frame.
func (c *Cache) Incomplete(f func()) {
	c.PushIncomplete()
	defer c.PopIncomplete()
	f()
}

// EnterReturnInference reports whether the return-type-inference stack
// has room for one more frame and, if so, occupies it; the caller must
// call ExitReturnInference exactly
// once for every true result.
func (c *Cache) EnterReturnInference() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.returnInferenceDepth >= ReturnInferenceLimit {
		return false
	}
	c.returnInferenceDepth++
	return true
}

// ExitReturnInference releases one return-type-inference frame.
func (c *Cache) ExitReturnInference() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.returnInferenceDepth > 0 {
		c.returnInferenceDepth--
	}
}

// Reset clears every tier, used by drivers moving on to a new file
// (the LRU bound keeps Size() from crossing GrowthThreshold on its
// own, but a whole file's worth of entries going stale at once is
// still worth clearing eagerly rather than waiting for eviction).
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permanent.Purge()
	c.speculative = nil
	c.incompleteDepth = 0
	c.returnInferenceDepth = 0
}

// Trace returns every debug line recorded while DebugMode is set,
// mirroring Evaluator.Trace.
func (c *Cache) Trace() []string { return c.trace }
