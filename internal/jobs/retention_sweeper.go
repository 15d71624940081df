package jobs

import (
	"context"
	"log"
	"time"

	"lingorelay/internal/services"
)

// RetentionSweeper evicts expired correlation cache entries and purges
// durable and mirrored records past the retention window. Safe to run
// concurrently with live put/get traffic - the store synchronizes
// internally and nothing is paused.
type RetentionSweeper struct {
	store     *services.CorrelationStore
	analytics *services.AnalyticsService // optional
	retention time.Duration
}

// NewRetentionSweeper creates the sweeper. analytics may be nil when
// the MongoDB mirror is disabled.
func NewRetentionSweeper(store *services.CorrelationStore, analytics *services.AnalyticsService, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		store:     store,
		analytics: analytics,
		retention: retention,
	}
}

// Run executes one sweep cycle.
func (j *RetentionSweeper) Run(ctx context.Context) error {
	evicted := j.store.EvictExpired(time.Now())

	purged, err := j.store.PurgeOlderThan(j.retention)
	if err != nil {
		log.Printf("❌ [RETENTION] Durable purge failed: %v", err)
		return err
	}

	if j.analytics != nil {
		pruned, err := j.analytics.PruneOlderThan(ctx, j.retention)
		if err != nil {
			// Mirror pruning is advisory; the authoritative purge succeeded.
			log.Printf("⚠️ [RETENTION] Analytics prune failed: %v", err)
		} else if pruned > 0 {
			log.Printf("🧹 [RETENTION] Pruned %d mirrored documents", pruned)
		}
	}

	if evicted > 0 || purged > 0 {
		log.Printf("🧹 [RETENTION] Sweep complete: %d cache entries evicted, %d durable rows purged", evicted, purged)
	}
	return nil
}
