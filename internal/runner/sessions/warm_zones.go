package sessions

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"vrz_bot/pkg/logger"
)

// WarmZones builds base timeframe zones for every asset without scanning.
func (s *UserSession) WarmZones(ctx context.Context) (int, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	assets, err := s.ResolveAssets(ctx)
	if err != nil {
		return 0, err
	}
	st := s.Settings()

	var (
		saved atomic.Int64
		g     errgroup.Group
	)
	g.SetLimit(s.deps.AssetConcurrency)
	for _, a := range assets {
		g.Go(func() error {
			res, err := s.deps.Zones.Refresh(ctx, a.Symbol, a.ProductID, st)
			if err != nil {
				logger.Warn("user %d: warmup %s: %v", s.UserID, a.Symbol, err)
				return nil
			}
			saved.Add(int64(res.Saved))
			return nil
		})
	}
	_ = g.Wait()
	return int(saved.Load()), ctx.Err()
}
