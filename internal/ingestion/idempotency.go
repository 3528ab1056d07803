package ingestion

import (
	"container/list"
	"fmt"

	"VaultLedger/internal/observability"
)

// IdempotencyChecker implements two-tier deduplication of operation
// requests: an in-memory LRU for the hot path and a Postgres lookup against
// the operation log for the cold path. NATS redelivery (max_deliver=5)
// makes duplicates routine, not exceptional.
type IdempotencyChecker struct {
	lru       *idempotencyLRU
	dbChecker DBIdempotencyChecker
	metrics   *observability.Metrics
}

// DBIdempotencyChecker is the interface for the Postgres dedup lookup.
type DBIdempotencyChecker interface {
	IsDuplicate(opType string, operationID string) (bool, error)
}

func NewIdempotencyChecker(capacity int, dbChecker DBIdempotencyChecker, metrics *observability.Metrics) *IdempotencyChecker {
	return &IdempotencyChecker{
		lru:       newIdempotencyLRU(capacity),
		dbChecker: dbChecker,
		metrics:   metrics,
	}
}

// IsDuplicate checks whether the operation has been processed.
func (ic *IdempotencyChecker) IsDuplicate(opType, operationID string) bool {
	compositeKey := fmt.Sprintf("%s:%s", opType, operationID)

	if ic.lru.Contains(compositeKey) {
		ic.recordDuplicate("lru")
		return true
	}

	if ic.dbChecker != nil {
		isDup, err := ic.dbChecker.IsDuplicate(opType, operationID)
		if err != nil {
			// Conservative: a DB issue must not block operation processing.
			return false
		}
		if isDup {
			ic.recordDuplicate("postgres")
			ic.lru.Add(compositeKey)
			return true
		}
	}

	return false
}

// MarkProcessed adds the key to the LRU after successful processing.
func (ic *IdempotencyChecker) MarkProcessed(opType, operationID string) {
	ic.lru.Add(fmt.Sprintf("%s:%s", opType, operationID))
	if ic.metrics != nil {
		ic.metrics.DedupLRUSize.Set(float64(ic.lru.Len()))
	}
}

func (ic *IdempotencyChecker) recordDuplicate(tier string) {
	if ic.metrics != nil {
		ic.metrics.IdempotencyDuplicates.WithLabelValues(tier).Inc()
	}
}

// --- LRU Implementation ---

// idempotencyLRU is an LRU cache for operation keys.
// Not thread-safe — only accessed from the single-threaded dispatcher.
type idempotencyLRU struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List
}

type lruEntry struct {
	key string
}

func newIdempotencyLRU(capacity int) *idempotencyLRU {
	return &idempotencyLRU{
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Contains checks if key exists (promotes to front).
func (lru *idempotencyLRU) Contains(key string) bool {
	if elem, ok := lru.cache[key]; ok {
		lru.lruList.MoveToFront(elem)
		return true
	}
	return false
}

// Add inserts a key, evicting the oldest entry at capacity.
func (lru *idempotencyLRU) Add(key string) {
	if elem, ok := lru.cache[key]; ok {
		lru.lruList.MoveToFront(elem)
		return
	}

	elem := lru.lruList.PushFront(&lruEntry{key: key})
	lru.cache[key] = elem

	if lru.lruList.Len() > lru.capacity {
		oldest := lru.lruList.Back()
		if oldest != nil {
			lru.lruList.Remove(oldest)
			delete(lru.cache, oldest.Value.(*lruEntry).key)
		}
	}
}

// Len returns the number of cached keys.
func (lru *idempotencyLRU) Len() int {
	return lru.lruList.Len()
}
