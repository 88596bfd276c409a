package post

import (
	"context"
	"errors"

	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/observability"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const sweepBatchSize = 100

// SweepOrphanedUploads removes ledger entries, and their stored bytes, that
// were authorized longer ago than the orphan TTL and never became posts. It
// returns the number of entries removed.
func (s *Service) SweepOrphanedUploads(ctx context.Context) (removed int, err error) {
	ctx, span := observability.StartSweepSpan(ctx)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	ttl := s.cfg.UploadOrphanTTL
	if ttl < s.cfg.UploadExpiration {
		ttl = s.cfg.UploadExpiration
	}
	cutoff := s.now().UTC().Add(-ttl)

	stale, err := s.uploads.FindOrphaned(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list orphaned uploads")
	}

	for _, upload := range stale {
		// Claim the ledger row before touching storage.
		deleted, err := s.uploads.DeleteByIDs(ctx, []string{upload.ID})
		if err != nil {
			return removed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete orphaned upload")
		}
		if deleted == 0 {
			continue
		}
		if err := s.storage.Delete(ctx, upload.Key()); err != nil && !errors.Is(err, ErrStoredObjectMissing) {
			s.log.Warn().Err(err).Str("upload_id", upload.ID).Msg("failed to delete orphaned object")
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("swept orphaned uploads")
	}
	return removed, nil
}
