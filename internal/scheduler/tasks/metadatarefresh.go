package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/library/ingest"
	"github.com/reelvault/reelvault/internal/metadata/tmdb"
	"github.com/reelvault/reelvault/internal/scheduler"
)

// Stale titles are refreshed in batches so a large catalog does not hammer
// the provider in one run.
const refreshBatchSize = 50

// MetadataRefreshTask re-ingests titles whose metadata has gone stale.
type MetadataRefreshTask struct {
	store  *catalog.Store
	ingest *ingest.Service
	maxAge time.Duration
	logger zerolog.Logger
}

// NewMetadataRefreshTask creates a metadata refresh task.
func NewMetadataRefreshTask(store *catalog.Store, ingestService *ingest.Service, maxAge time.Duration, logger zerolog.Logger) *MetadataRefreshTask {
	return &MetadataRefreshTask{
		store:  store,
		ingest: ingestService,
		maxAge: maxAge,
		logger: logger.With().Str("task", "metadata-refresh").Logger(),
	}
}

// Run refreshes every title whose last merge is older than the configured
// age. Refreshes run as the system user (id 0): no per-title locale
// overrides apply, so the system default locale drives the fetch.
func (t *MetadataRefreshTask) Run(ctx context.Context) error {
	stale, err := t.store.ListStaleTitles(ctx, ingest.StaleCutoff(t.maxAge), refreshBatchSize)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to list stale titles")
		return err
	}

	if len(stale) == 0 {
		t.logger.Info().Msg("No stale titles, skipping refresh")
		return nil
	}

	t.logger.Info().Int("count", len(stale)).Msg("Refreshing stale titles")

	refreshed := 0
	var lastErr error

	for _, title := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := t.ingest.RefreshTitle(ctx, 0, title.ID)
		if err != nil {
			if !tmdb.Retryable(err) {
				t.logger.Warn().Err(err).
					Int64("titleId", title.ID).
					Msg("Permanent fetch failure, skipping title")
				continue
			}
			t.logger.Warn().Err(err).Int64("titleId", title.ID).Msg("Failed to refresh title")
			lastErr = err
			continue
		}

		refreshed++
		t.logger.Debug().Int64("titleId", title.ID).Msg("Refreshed title metadata")
	}

	t.logger.Info().Int("refreshed", refreshed).Int("total", len(stale)).Msg("Metadata refresh completed")
	return lastErr
}

// RegisterMetadataRefreshTask registers the refresh task with the scheduler.
func RegisterMetadataRefreshTask(sched *scheduler.Scheduler, store *catalog.Store, ingestService *ingest.Service, cron string, maxAge time.Duration, logger zerolog.Logger) error {
	task := NewMetadataRefreshTask(store, ingestService, maxAge, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "metadata-refresh",
		Name:        "Metadata Refresh",
		Description: "Re-ingests titles whose metadata has gone stale",
		Cron:        cron,
		RunOnStart:  false,
		Func:        task.Run,
	})
}
