// Command scan runs one dry-run scan pass for the configured users and
// prints what it would have opened. No orders are placed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	bootstrap "vrz_bot/internal/modules/bootstrap/service"
	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/modules/delta_client"
	"vrz_bot/internal/modules/delta_websocket"
	health "vrz_bot/internal/modules/health/service"
	"vrz_bot/internal/modules/journal"
	"vrz_bot/internal/modules/postgres"
	"vrz_bot/internal/modules/redis"
	"vrz_bot/internal/models"
	"vrz_bot/internal/notify"
	"vrz_bot/internal/runner"
	"vrz_bot/internal/runner/router"
	"vrz_bot/internal/storage"
	"vrz_bot/internal/strategy"
	"vrz_bot/pkg/logger"
)

var (
	userID  = flag.Int64("user", 0, "scan only this user id (0 = every active user)")
	timeout = flag.Duration("timeout", 2*time.Minute, "abort the pass after this long")
	seed    = flag.Bool("seed", false, "upsert the config users before scanning")
)

func main() {
	flag.Parse()

	var (
		r     *router.Router
		users storage.UserStore
		wu    *bootstrap.Warmuper
	)
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			dryRunConfig,
			health.NewState,
			func() notify.Notifier { return notify.NewStdout() },
			runner.NewDeps,
			router.NewRouter,
			bootstrap.NewWarmuper,
		),
		postgres.Module(),
		delta_client.Module(),
		delta_websocket.Module(),
		redis.Module(),
		journal.Module(),
		strategy.Module(),
		fx.Invoke(func(cfg *config.Config) error {
			return logger.Init(cfg.LogLevel)
		}),
		fx.Populate(&r, &users, &wu),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		logger.Fatal("start: %v", err)
	}
	code := 0
	if err := scan(ctx, r, users, wu); err != nil {
		logger.Error("scan: %v", err)
		code = 1
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warn("stop: %v", err)
	}
	logger.Sync()
	os.Exit(code)
}

func dryRunConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	cfg.Scan.DryRun = true
	return cfg, nil
}

func scan(ctx context.Context, r *router.Router, users storage.UserStore, wu *bootstrap.Warmuper) error {
	if *seed {
		if _, err := wu.Seed(ctx); err != nil {
			return err
		}
	}

	var targets []models.UserSettings
	if *userID != 0 {
		u, err := users.Get(ctx, *userID)
		if err != nil {
			return fmt.Errorf("user %d: %w", *userID, err)
		}
		u.IsActive = true // explicit -user scans paused users too
		targets = append(targets, *u)
	} else {
		active, err := users.Active(ctx)
		if err != nil {
			return err
		}
		targets = active
	}
	if len(targets) == 0 {
		return fmt.Errorf("no users to scan, try -seed")
	}
	r.Sync(targets)

	fmt.Printf("%-10s %-16s %7s %8s\n", "USER", "NAME", "ASSETS", "SIGNALS")
	for _, s := range r.Sessions() {
		res, err := s.Scan(ctx)
		if err != nil {
			return fmt.Errorf("user %d: %w", s.UserID, err)
		}
		fmt.Printf("%-10d %-16s %7d %8d\n", s.UserID, s.Name, res.Assets, res.Signals)
	}
	return nil
}
