package pricing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CacheEntry is a resolved unit price with its fetch time. A nil Price
// records a "no matching price" outcome, which is cached like any
// other result. Entries are never deleted, only superseded or treated
// as stale.
type CacheEntry struct {
	// Key is the deterministic cache key
	Key string `json:"key"`

	// Price is the unit price, nil when the source had no match
	Price *decimal.Decimal `json:"price"`

	// FetchedAt is when the price was fetched from the source
	FetchedAt time.Time `json:"fetched_at"`
}

// IsFresh reports whether the entry is within TTL at the given time.
// The comparison is a strict wall-clock now-fetchedAt < ttl with no
// rounding at sub-hour or sub-minute boundaries.
func (e CacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Store is the two-tier price cache. Tier 1 is an in-memory map that
// lives for the process; tier 2 is a directory of durable JSON
// records, loaded lazily on tier-1 misses and surviving restarts.
//
// Reads are concurrent; writes are serialized under a single lock,
// which is acceptable at the low write volume of a CI run. Races
// between resolvers are last-write-wins: prices for a fixed key are
// referentially stable within a billing period.
type Store struct {
	dir string
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]CacheEntry

	logger *zap.Logger

	// now is replaceable for TTL boundary tests
	now func() time.Time
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger injects a logger
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store persisting under dir with the given TTL in
// fractional hours. An empty dir disables the persistent tier.
func NewStore(dir string, ttlHours float64, opts ...StoreOption) *Store {
	s := &Store{
		dir:     dir,
		ttl:     time.Duration(ttlHours * float64(time.Hour)),
		entries: make(map[string]CacheEntry),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached price for key. fresh reports whether the
// entry is within TTL; ok reports whether any entry exists at all. A
// stale entry is still returned so callers can fall back to it when a
// re-fetch fails.
func (s *Store) Get(key string) (price *decimal.Decimal, fresh bool, ok bool) {
	s.mu.RLock()
	entry, found := s.entries[key]
	s.mu.RUnlock()

	if !found {
		entry, found = s.loadFromDisk(key)
		if !found {
			return nil, false, false
		}
	}

	return entry.Price, entry.IsFresh(s.now(), s.ttl), true
}

// Put records a freshly fetched price for key, writing through both
// tiers.
func (s *Store) Put(key string, price *decimal.Decimal) {
	entry := CacheEntry{
		Key:       key,
		Price:     price,
		FetchedAt: s.now(),
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	s.persist(entry)
}

// HasFreshCache reports whether key has an entry within TTL
func (s *Store) HasFreshCache(key string) bool {
	_, fresh, ok := s.Get(key)
	return ok && fresh
}

// Size returns the number of tier-1 entries
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// loadFromDisk reads a tier-2 record and promotes it into tier 1,
// keeping its original fetch time so TTL is evaluated against the
// actual fetch.
func (s *Store) loadFromDisk(key string) (CacheEntry, bool) {
	if s.dir == "" {
		return CacheEntry{}, false
	}

	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		return CacheEntry{}, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("discarding unreadable cache record",
			zap.String("key", key), zap.Error(err))
		return CacheEntry{}, false
	}

	s.mu.Lock()
	// Another resolver may have fetched a newer value meanwhile
	if existing, found := s.entries[key]; found && existing.FetchedAt.After(entry.FetchedAt) {
		entry = existing
	} else {
		s.entries[key] = entry
	}
	s.mu.Unlock()

	return entry, true
}

func (s *Store) persist(entry CacheEntry) {
	if s.dir == "" {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Warn("cache directory unavailable", zap.Error(err))
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("cache record not serializable", zap.Error(err))
		return
	}

	path := s.entryPath(entry.Key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", entry.Key), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.Warn("cache rename failed", zap.String("key", entry.Key), zap.Error(err))
	}
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
