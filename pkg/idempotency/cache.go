// Package idempotency implements the bounded, insertion-ordered
// transaction-response cache. Every response the
// transaction processor produces — accepted or rejected — is recorded
// here under its txId, with the two documented exceptions (cache
// replays themselves, and the pre-dispatch instance-not-found response).
// A lookup hit returns the original response verbatim without
// re-executing any side effect.
package idempotency

import (
	"encoding/json"
	"sync"

	"github.com/elliotchance/orderedmap"
)

// DefaultBound is the cache size used when a host does not configure one.
const DefaultBound = 10000

// Entry is one cached transaction response.
type Entry struct {
	TxID       string          `json:"txId"`
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// Cache is a bounded FIFO map from txId to cached Entry. Eviction is
// strict insertion order: once the bound is exceeded, the oldest
// entries are dropped first, regardless of access pattern. It is safe
// for concurrent use, though the engine only ever touches one Cache
// from the single mutator goroutine that owns its GameState — the lock
// here exists so the snapshot encoder (which reads a live instance) and
// the processor never race on the backing ordered map.
type Cache struct {
	mu     sync.RWMutex
	bound  int
	byTxID *orderedmap.OrderedMap[string, Entry]
}

// NewCache returns an empty Cache bounded to the given size. A bound of
// 0 or less uses DefaultBound.
func NewCache(bound int) *Cache {
	if bound <= 0 {
		bound = DefaultBound
	}
	return &Cache{
		bound:  bound,
		byTxID: orderedmap.NewOrderedMap[string, Entry](),
	}
}

// Lookup returns the cached entry for txId, if any.
func (c *Cache) Lookup(txID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byTxID.Get(txID)
}

// Record inserts a response under txId. If txId is already present this
// is a no-op: the first recorded response for a given txId always wins.
// If recording pushes the cache past its bound, the oldest entries are
// evicted until it fits.
func (c *Cache) Record(txID string, statusCode int, body json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byTxID.Get(txID); exists {
		return
	}
	c.byTxID.Set(txID, Entry{TxID: txID, StatusCode: statusCode, Body: body})

	for c.byTxID.Len() > c.bound {
		oldest := c.byTxID.Front()
		if oldest == nil {
			break
		}
		c.byTxID.Delete(oldest.Key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byTxID.Len()
}

// Bound returns the configured maximum size.
func (c *Cache) Bound() int {
	return c.bound
}

// Entries returns all cached entries in insertion (oldest-first) order.
// Used by the snapshot encoder.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, c.byTxID.Len())
	for el := c.byTxID.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Restore replaces the cache contents with entries loaded from a
// snapshot, preserving their original insertion order. A positive
// bound replaces the bound configured on c; a non-positive one keeps it.
func (c *Cache) Restore(entries []Entry, bound int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bound > 0 {
		c.bound = bound
	}
	c.byTxID = orderedmap.NewOrderedMap[string, Entry]()
	for _, e := range entries {
		c.byTxID.Set(e.TxID, e)
	}
}
