// Package enrichment runs best-effort post-processing over repository
// entries that are missing a derived field. The worker is idempotent and
// re-entrant: two concurrent sweeps over the same entry compute the same
// patch and the last write wins harmlessly.
package enrichment

import (
	"context"

	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/application/repository"
	"secondbrain-backend/domain/memory"
)

// Worker fills in missing derived fields via the AI service boundary
type Worker struct {
	repo     *repository.Repository
	enricher ports.Enricher
	logger   *zap.Logger
}

// NewWorker creates an enrichment worker
func NewWorker(repo *repository.Repository, enricher ports.Enricher, logger *zap.Logger) *Worker {
	return &Worker{
		repo:     repo,
		enricher: enricher,
		logger:   logger,
	}
}

// Sweep finds voice memories with a transcript but no summary and patches
// the summary in. Failures on individual entries are logged and skipped; the
// next sweep retries them. Returns the number of entries patched.
func (w *Worker) Sweep(ctx context.Context) int {
	pending := w.repo.VoiceMemoriesWithoutSummary()
	patched := 0

	for _, m := range pending {
		if ctx.Err() != nil {
			return patched
		}

		summary, err := w.enricher.Summarize(ctx, m.Voice.Transcript)
		if err != nil {
			w.logger.Warn("summary generation failed",
				zap.String("memoryId", m.ID),
				zap.Error(err),
			)
			continue
		}
		if summary == "" {
			continue
		}

		// Patch the whole payload so a concurrent sweep writing the same
		// summary converges on an identical value.
		_, ok := w.repo.UpdateMemory(m.ID, memory.MemoryPatch{
			Voice: &memory.VoicePayload{
				Transcript: m.Voice.Transcript,
				Summary:    summary,
			},
		})
		if ok {
			patched++
		}
	}

	return patched
}
