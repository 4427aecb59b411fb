package worker

// populate_cron.go
// Background goroutine that periodically re-runs head population for sites
// with deferred head records: a head deferred for a missing document
// reference becomes resolvable once a later sync delivers more history.
// Uses the Circuit Breaker to avoid hammering a downed registry.

import (
	"context"
	"time"

	"github.com/pavelplus/vetis-tools/internal/infra"
	"github.com/pavelplus/vetis-tools/internal/repository"

	"github.com/rs/zerolog/log"
)

const populateTickInterval = 15 * time.Minute

// PopulateCronConfig holds all dependencies for the population goroutine.
type PopulateCronConfig struct {
	Ents       repository.EnterpriseRepository
	Stock      repository.StockRepository
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
}

// StartPopulateCron launches a background goroutine that ticks every 15
// minutes and enqueues a populate-heads job for every sync target still
// carrying unresolved head records. It respects the context for graceful
// shutdown.
func StartPopulateCron(ctx context.Context, cfg PopulateCronConfig) {
	go func() {
		ticker := time.NewTicker(populateTickInterval)
		defer ticker.Stop()

		log.Info().Msg("populate_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("populate_cron: shutting down")
				return
			case <-ticker.C:
				enqueuePopulateJobs(ctx, cfg)
			}
		}
	}()
}

func enqueuePopulateJobs(ctx context.Context, cfg PopulateCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed registry
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("populate_cron: circuit breaker is open, skipping tick")
		return
	}

	ents, err := cfg.Ents.ListSyncTargets(ctx)
	if err != nil {
		log.Error().Err(err).Msg("populate_cron: failed to list sync targets")
		return
	}

	for i := range ents {
		ent := &ents[i]
		// A site with no sync yet has nothing to populate.
		if ent.StockSyncedAt == nil || ent.BusinessEntity == nil || ent.BusinessEntity.Credentials == nil {
			continue
		}
		mains, err := cfg.Stock.ListUnpopulatedMains(ctx, ent.ID)
		if err != nil {
			log.Error().Err(err).Uint("enterprise_id", ent.ID).
				Msg("populate_cron: failed to count unresolved heads")
			continue
		}
		if len(mains) == 0 {
			continue
		}

		jobID, err := cfg.Dispatcher.EnqueueSync(ctx, SyncJobPayload{
			Task:           TaskPopulateMains,
			CredentialsID:  ent.BusinessEntity.Credentials.ID,
			InitiatorLogin: ent.BusinessEntity.Credentials.Login,
			EnterpriseID:   ent.ID,
		})
		if err != nil {
			log.Error().Err(err).Uint("enterprise_id", ent.ID).
				Msg("populate_cron: failed to enqueue job")
			continue
		}
		log.Info().Str("job_id", jobID).Uint("enterprise_id", ent.ID).
			Int("unresolved", len(mains)).
			Msg("populate_cron: head population enqueued")
	}
}
