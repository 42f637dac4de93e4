package ratelimit

import (
	"context"
	"sync"
	"time"
)

// defaultMaxKeys bounds the store when the config leaves MaxKeys unset.
// One key per client IP or editor subject; the pipeline API serves a small
// editor population, so this is generous.
const defaultMaxKeys = 10000

// InMemoryRateLimitStore keeps request timestamps in a map guarded by an
// RWMutex. Capacity is bounded: when MaxKeys is reached, the least
// recently used keys are evicted in batches. The store also implements
// AtomicRateLimitStore so concurrent checks on one key cannot both pass.
type InMemoryRateLimitStore struct {
	mu      sync.RWMutex
	entries map[string]*keyEntry
	maxKeys int
	clock   Clock
	recency *recencyList
}

// keyEntry holds the recorded timestamps for one key.
type keyEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// recencyList orders keys by last access, most recent first, so eviction
// can walk from the tail.
type recencyList struct {
	head  *recencyNode
	tail  *recencyNode
	nodes map[string]*recencyNode
}

type recencyNode struct {
	key  string
	prev *recencyNode
	next *recencyNode
}

// InMemoryStoreConfig configures an InMemoryRateLimitStore.
type InMemoryStoreConfig struct {
	// MaxKeys caps the number of keys held before LRU eviction kicks in.
	// Zero or negative selects the default.
	MaxKeys int

	// Clock overrides the time source in tests.
	Clock Clock
}

// DefaultInMemoryStoreConfig returns the production configuration.
func DefaultInMemoryStoreConfig() InMemoryStoreConfig {
	return InMemoryStoreConfig{
		MaxKeys: defaultMaxKeys,
		Clock:   &SystemClock{},
	}
}

// NewInMemoryRateLimitStore creates a store with the given configuration,
// filling in defaults for unset fields.
func NewInMemoryRateLimitStore(config InMemoryStoreConfig) *InMemoryRateLimitStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = defaultMaxKeys
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}

	return &InMemoryRateLimitStore{
		entries: make(map[string]*keyEntry),
		maxKeys: config.MaxKeys,
		clock:   config.Clock,
		recency: &recencyList{nodes: make(map[string]*recencyNode)},
	}
}

// AddRequest records one request for key, evicting the least recently
// used keys first when a new key would exceed capacity.
func (s *InMemoryRateLimitStore) AddRequest(ctx context.Context, key string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(key, timestamp)
	return nil
}

// record appends a timestamp for key. Caller must hold the write lock.
func (s *InMemoryRateLimitStore) record(key string, timestamp time.Time) {
	entry, exists := s.entries[key]
	if !exists && len(s.entries) >= s.maxKeys {
		s.evictOldest()
	}

	if !exists {
		entry = &keyEntry{timestamps: make([]time.Time, 0, 100)}
		s.entries[key] = entry
	}
	entry.lastSeen = timestamp
	entry.timestamps = append(entry.timestamps, timestamp)
	s.recency.touch(key)
}

// GetRequests returns key's timestamps newer than cutoff.
func (s *InMemoryRateLimitStore) GetRequests(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists {
		return []time.Time{}, nil
	}

	result := make([]time.Time, 0, len(entry.timestamps))
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			result = append(result, ts)
		}
	}
	return result, nil
}

// GetRequestCount counts key's timestamps newer than cutoff without
// allocating the slice GetRequests would.
func (s *InMemoryRateLimitStore) GetRequestCount(ctx context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists {
		return 0, nil
	}
	return countAfter(entry.timestamps, cutoff), nil
}

// Cleanup drops timestamps at or before cutoff from every key and removes
// keys left empty.
func (s *InMemoryRateLimitStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var empty []string
	for key, entry := range s.entries {
		kept := entry.timestamps[:0]
		for _, ts := range entry.timestamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			empty = append(empty, key)
			continue
		}
		entry.timestamps = kept
	}

	for _, key := range empty {
		delete(s.entries, key)
		s.recency.remove(key)
	}
	return nil
}

// KeyCount returns the number of keys currently holding state.
func (s *InMemoryRateLimitStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// MemoryUsage estimates the bytes held by the store from per-entry
// constants; it is a monitoring figure, not an exact accounting.
func (s *InMemoryRateLimitStore) MemoryUsage(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const (
		mapEntryBytes   = 48 // approximate map bucket share per entry
		timestampBytes  = 24 // time.Time
		entryStructSize = 32 // keyEntry header
		recencyNodeSize = 48
	)

	var total int64
	for _, entry := range s.entries {
		total += mapEntryBytes + entryStructSize
		total += int64(len(entry.timestamps) * timestampBytes)
	}
	total += int64(len(s.recency.nodes) * recencyNodeSize)

	return total, nil
}

// CheckAndAddRequest checks key against limit and records the request when
// it fits, all under one write lock, implementing AtomicRateLimitStore.
// The returned count is the in-window total after the call.
func (s *InMemoryRateLimitStore) CheckAndAddRequest(ctx context.Context, key string, timestamp time.Time, cutoff time.Time, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if entry, exists := s.entries[key]; exists {
		current = countAfter(entry.timestamps, cutoff)
	}
	if current >= limit {
		return false, current, nil
	}

	s.record(key, timestamp)
	return true, current + 1, nil
}

// evictOldest removes the least recently used tenth of the keys, at least
// one, so a full store does not evict on every insert. Caller must hold
// the write lock.
func (s *InMemoryRateLimitStore) evictOldest() {
	target := s.maxKeys / 10
	if target < 1 {
		target = 1
	}

	for evicted := 0; evicted < target && s.recency.tail != nil; evicted++ {
		key := s.recency.tail.key
		delete(s.entries, key)
		s.recency.remove(key)
	}
}

func countAfter(timestamps []time.Time, cutoff time.Time) int {
	count := 0
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

// touch moves key to the most-recently-used position, inserting it when
// absent. Caller must hold the store's write lock.
func (l *recencyList) touch(key string) {
	if _, exists := l.nodes[key]; exists {
		l.remove(key)
	}

	node := &recencyNode{key: key, next: l.head}
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.nodes[key] = node
}

// remove unlinks key from the list. Caller must hold the store's write
// lock.
func (l *recencyList) remove(key string) {
	node, exists := l.nodes[key]
	if !exists {
		return
	}

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	delete(l.nodes, key)
}
