package sessions

import (
	"context"

	"vrz_bot/internal/models"
	"vrz_bot/internal/notify"
	"vrz_bot/pkg/logger"
)

// Reconcile cancels stale entry orders first, then reports local positions
// that disagree with the exchange. Discrepancies are not corrected.
func (s *UserSession) Reconcile(ctx context.Context) ([]models.Discrepancy, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	if n, err := s.CancelStaleEntries(ctx); err != nil {
		logger.Warn("user %d: stale entries: %v", s.UserID, err)
	} else if n > 0 {
		logger.Info("user %d: %d stale entries cancelled", s.UserID, n)
	}

	ds, err := s.deps.Reconciler.Reconcile(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	for _, d := range ds {
		logger.Warn("user %d: %s %s local=%d exchange=%d", s.UserID, d.Kind, d.Symbol, d.LocalSize, d.ExchangeSize)
		if err := s.deps.Journal.RecordDiscrepancy(s.UserID, d); err != nil {
			logger.Warn("journal discrepancy: %v", err)
		}
		s.notify(ctx, notify.FormatDiscrepancy(d))
	}
	return ds, nil
}
