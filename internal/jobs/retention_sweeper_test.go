package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lingorelay/internal/database"
	"lingorelay/internal/models"
	"lingorelay/internal/services"
)

func newTestStore(t *testing.T, ttl time.Duration) *services.CorrelationStore {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	return services.NewCorrelationStore(db, 100, ttl, nil)
}

func TestRetentionSweeper_PurgesAgedRecords(t *testing.T) {
	store := newTestStore(t, time.Minute)

	aged := &models.TranslationRecord{
		PostedMessageID: 501,
		SourceMessageID: 1,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "es",
		OriginalText:    "Hola",
		TranslatedText:  "Hello",
		CreatedAt:       time.Now().Add(-48 * time.Hour).UTC(),
	}
	if err := store.Put(aged); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sweeper := NewRetentionSweeper(store, nil, 24*time.Hour)
	if err := sweeper.Run(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	// The cache copy has not hit its TTL yet; the durable row is gone.
	// Once the cache entry expires too, the record is unresolvable.
	store.EvictExpired(time.Now().Add(2 * time.Minute))
	if _, err := store.Get(501); err == nil {
		t.Fatal("Expected aged record to be purged")
	}
}

func TestRetentionSweeper_KeepsRecentRecords(t *testing.T) {
	store := newTestStore(t, time.Minute)

	fresh := &models.TranslationRecord{
		PostedMessageID: 502,
		SourceMessageID: 2,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "fr",
		OriginalText:    "Bonjour",
		TranslatedText:  "Hello",
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.Put(fresh); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sweeper := NewRetentionSweeper(store, nil, 24*time.Hour)
	if err := sweeper.Run(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if _, err := store.Get(502); err != nil {
		t.Fatalf("Fresh record must survive the sweep: %v", err)
	}
}

func TestRetentionSweeper_EvictsExpiredCacheEntries(t *testing.T) {
	ttl := 10 * time.Millisecond
	store := newTestStore(t, ttl)

	rec := &models.TranslationRecord{
		PostedMessageID: 503,
		SourceMessageID: 3,
		ChatID:          -100,
		UserID:          42,
		SourceLanguage:  "de",
		OriginalText:    "Hallo",
		TranslatedText:  "Hello",
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.Put(rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	time.Sleep(2 * ttl)

	sweeper := NewRetentionSweeper(store, nil, 24*time.Hour)
	if err := sweeper.Run(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if size := store.CacheSize(); size != 0 {
		t.Errorf("Expected expired cache entry evicted, cache size %d", size)
	}

	// Still resolvable: retention has not elapsed, only the cache TTL.
	if _, err := store.Get(503); err != nil {
		t.Errorf("Record inside retention window must resolve via durable store: %v", err)
	}
}
