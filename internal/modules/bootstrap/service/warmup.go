package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"vrz_bot/internal/models"
	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/runner/router"
	"vrz_bot/internal/storage"
	"vrz_bot/pkg/logger"
)

// warm at most this many users at once, each with its own asset limit
const warmupUsers = 2

type Warmuper struct {
	cfg    *config.Config
	users  storage.UserStore
	router *router.Router
}

func NewWarmuper(cfg *config.Config, users storage.UserStore, r *router.Router) *Warmuper {
	return &Warmuper{cfg: cfg, users: users, router: r}
}

// Seed writes the users section of the config to the user store.
func (w *Warmuper) Seed(ctx context.Context) (int, error) {
	for _, seed := range w.cfg.Users {
		u := &models.UserSettings{
			UserID:   seed.UserID,
			Name:     seed.Name,
			IsActive: seed.Active,
			Settings: w.cfg.SeedSettings(seed),
		}
		if err := w.users.Upsert(ctx, u); err != nil {
			return 0, fmt.Errorf("seed user %d: %w", seed.UserID, err)
		}
	}
	return len(w.cfg.Users), nil
}

// Warmup starts sessions for active users and builds their zones.
func (w *Warmuper) Warmup(ctx context.Context) (int, error) {
	active, err := w.users.Active(ctx)
	if err != nil {
		return 0, fmt.Errorf("active users: %w", err)
	}
	w.router.Sync(active)

	var (
		saved atomic.Int64
		g     errgroup.Group
	)
	g.SetLimit(warmupUsers)
	for _, s := range w.router.Sessions() {
		g.Go(func() error {
			n, err := s.WarmZones(ctx)
			if err != nil {
				logger.Warn("[BOOT] warmup user %d: %v", s.UserID, err)
			}
			saved.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()
	return int(saved.Load()), ctx.Err()
}
