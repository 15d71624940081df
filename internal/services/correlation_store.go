package services

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"lingorelay/internal/models"
)

// DurableStore is the persistence contract behind the correlation
// store: insert by unique posted-message key, point lookup, secondary
// lookup by source message, and delete-by-age.
type DurableStore interface {
	InsertTranslation(rec *models.TranslationRecord) error
	GetByPostedID(postedMessageID int64) (*models.TranslationRecord, error)
	HasSource(chatID, sourceMessageID int64) (bool, error)
	DeleteOlderThan(age time.Duration) (int64, error)
}

type cacheEntry struct {
	rec       *models.TranslationRecord
	expiresAt time.Time
}

// CorrelationStore binds posted translation messages to the original
// messages they were produced from. Lookups consult a bounded
// in-memory cache first and fall back to durable storage on a miss
// (cache-aside); every insert is written through to durable storage
// before the cache accepts it. Cache eviction is a memory/latency
// optimization only - durable storage stays authoritative until the
// retention purge.
type CorrelationStore struct {
	durable DurableStore

	mu      sync.RWMutex
	entries map[int64]*cacheEntry
	order   []int64 // insertion order; order[0] is evicted first under capacity pressure
	maxSize int
	ttl     time.Duration

	// Recently handled source message IDs. Bounded by TTL; redelivery
	// after eviction still dedupes through the durable secondary index.
	seen *gocache.Cache

	metrics *Metrics
}

// NewCorrelationStore creates a store with the given cache capacity
// and per-entry TTL on top of a durable backing store.
func NewCorrelationStore(durable DurableStore, maxSize int, ttl time.Duration, metrics *Metrics) *CorrelationStore {
	log.Printf("✅ Correlation store initialized (cache size: %d, TTL: %v)", maxSize, ttl)
	return &CorrelationStore{
		durable: durable,
		entries: make(map[int64]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		seen:    gocache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

// Put inserts a new record keyed by its PostedMessageID, writing
// through to durable storage before the record becomes visible in the
// cache. Returns ErrDuplicateKey if the key is already live.
func (s *CorrelationStore) Put(rec *models.TranslationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[rec.PostedMessageID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateKey, rec.PostedMessageID)
	}

	if err := s.durable.InsertTranslation(rec); err != nil {
		return fmt.Errorf("write-through failed: %w", err)
	}

	s.insertLocked(rec)
	s.seen.Set(sourceKey(rec.ChatID, rec.SourceMessageID), struct{}{}, gocache.DefaultExpiration)
	return nil
}

// Get resolves a posted translation message ID to its record. The
// cache is consulted first; on a miss the durable store is queried and
// a hit repopulates the cache. Returns ErrNotFound when both layers
// miss.
func (s *CorrelationStore) Get(postedMessageID int64) (*models.TranslationRecord, error) {
	s.mu.RLock()
	entry, ok := s.entries[postedMessageID]
	if ok && time.Now().Before(entry.expiresAt) {
		s.mu.RUnlock()
		s.metrics.CacheHit()
		return entry.rec, nil
	}
	s.mu.RUnlock()

	s.metrics.CacheMiss()

	rec, err := s.durable.GetByPostedID(postedMessageID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, postedMessageID)
	}

	s.mu.Lock()
	if stale, exists := s.entries[postedMessageID]; exists {
		// Expired but not yet swept; give it a fresh TTL.
		stale.expiresAt = time.Now().Add(s.ttl)
	} else {
		s.insertLocked(rec)
	}
	s.mu.Unlock()

	return rec, nil
}

// SeenSource reports whether an inbound message with this source ID
// was already handled. Consulted by the router before translating so
// platform-level redelivery never double-posts. Message IDs are
// scoped per chat, so the chat is part of the key.
func (s *CorrelationStore) SeenSource(chatID, sourceMessageID int64) (bool, error) {
	if _, found := s.seen.Get(sourceKey(chatID, sourceMessageID)); found {
		return true, nil
	}

	found, err := s.durable.HasSource(chatID, sourceMessageID)
	if err != nil {
		return false, err
	}
	if found {
		s.seen.Set(sourceKey(chatID, sourceMessageID), struct{}{}, gocache.DefaultExpiration)
	}
	return found, nil
}

// EvictExpired removes cache entries whose TTL elapsed at or before
// now. Durable rows are untouched; expired entries remain resolvable
// through the durable fallback.
func (s *CorrelationStore) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	remaining := s.order[:0]
	for _, id := range s.order {
		entry := s.entries[id]
		if entry != nil && !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			evicted++
			continue
		}
		remaining = append(remaining, id)
	}
	s.order = remaining

	if evicted > 0 {
		log.Printf("🧹 [STORE] Evicted %d expired cache entries", evicted)
	}
	return evicted
}

// PurgeOlderThan deletes durable rows older than age. Irreversible;
// records past the retention window resolve as not found afterwards.
func (s *CorrelationStore) PurgeOlderThan(age time.Duration) (int64, error) {
	return s.durable.DeleteOlderThan(age)
}

// CacheSize returns the number of live cache entries.
func (s *CorrelationStore) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// insertLocked adds a record to the cache, evicting the
// least-recently-inserted entry under capacity pressure. Caller holds
// the write lock and has verified the key is absent.
func (s *CorrelationStore) insertLocked(rec *models.TranslationRecord) {
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
		log.Printf("🧹 [STORE] Cache full, evicted oldest entry %d", oldest)
	}

	s.entries[rec.PostedMessageID] = &cacheEntry{
		rec:       rec,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.order = append(s.order, rec.PostedMessageID)
}

func sourceKey(chatID, messageID int64) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(messageID, 10)
}
