package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/runner/router"
	"vrz_bot/internal/runner/sessions"
	"vrz_bot/internal/storage"
	"vrz_bot/pkg/logger"
)

type ScanStats interface {
	ScanDone(t time.Time, activeSessions int)
	SetReady(v bool)
}

type ZonePurger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// ScanLoop drives every user session on a schedule.
type ScanLoop struct {
	cfg       *config.Config
	router    *router.Router
	users     storage.UserStore
	zones     ZonePurger
	positions storage.PositionStore
	stats     ScanStats

	cron   *cron.Cron
	scanID cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	runs   atomic.Int64
}

func NewScanLoop(cfg *config.Config, r *router.Router, users storage.UserStore, zones ZonePurger, positions storage.PositionStore, stats ScanStats) *ScanLoop {
	ctx, cancel := context.WithCancel(context.Background())
	return &ScanLoop{
		cfg:       cfg,
		router:    r,
		users:     users,
		zones:     zones,
		positions: positions,
		stats:     stats,
		cron:      cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Register adds the scan, reconcile, maintenance and report jobs.
func (l *ScanLoop) Register() error {
	var err error
	if l.scanID, err = l.cron.AddFunc(every(l.cfg.Scan.Interval), func() { l.RunOnce(l.ctx) }); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	if l.cfg.Scan.ReconcileInterval > 0 {
		if _, err := l.cron.AddFunc(every(l.cfg.Scan.ReconcileInterval), func() { l.ReconcileAll(l.ctx) }); err != nil {
			return fmt.Errorf("register reconcile job: %w", err)
		}
	}
	if l.cfg.Scan.MaintenanceCron != "" {
		if _, err := l.cron.AddFunc(l.cfg.Scan.MaintenanceCron, func() { l.Maintenance(l.ctx) }); err != nil {
			return fmt.Errorf("register maintenance job: %w", err)
		}
	}
	if l.cfg.Scan.ReportCron != "" {
		if _, err := l.cron.AddFunc(l.cfg.Scan.ReportCron, func() { l.DailyReport(l.ctx) }); err != nil {
			return fmt.Errorf("register report job: %w", err)
		}
	}
	return nil
}

// Start runs the first scan right away through the same skip-if-running chain.
func (l *ScanLoop) Start() {
	l.cron.Start()
	if e := l.cron.Entry(l.scanID); e.Valid() {
		go e.WrappedJob.Run()
	}
	logger.Info("scan loop started: every %s", l.cfg.Scan.Interval)
}

func (l *ScanLoop) Stop(ctx context.Context) error {
	l.cancel()
	done := l.cron.Stop()
	select {
	case <-done.Done():
		logger.Info("scan loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce syncs sessions with the user store, then scans entries and manages
// exits for every user. Per-user errors are logged.
func (l *ScanLoop) RunOnce(ctx context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scan.run_once")
	defer span.Finish()

	l.syncUsers(ctx)
	list := l.router.Sessions()
	span.SetTag("sessions", len(list))

	l.forEach(ctx, list, func(ctx context.Context, s *sessions.UserSession) {
		uspan, ctx := opentracing.StartSpanFromContext(ctx, "scan.user")
		uspan.SetTag("user_id", s.UserID)
		defer uspan.Finish()

		if _, err := s.ManageExits(ctx); err != nil {
			logger.Error("user %d exits: %v", s.UserID, err)
		}
		if _, err := s.Scan(ctx); err != nil {
			logger.Error("user %d scan: %v", s.UserID, err)
			uspan.SetTag("error", true)
		}
	})

	if l.stats != nil {
		l.stats.ScanDone(l.now(), len(list))
		l.stats.SetReady(true)
	}
	logger.Info("scan cycle %d done: sessions=%d", l.runs.Add(1), len(list))
}

func (l *ScanLoop) ReconcileAll(ctx context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scan.reconcile")
	defer span.Finish()

	l.forEach(ctx, l.router.Sessions(), func(ctx context.Context, s *sessions.UserSession) {
		if _, err := s.Reconcile(ctx); err != nil {
			logger.Error("user %d reconcile: %v", s.UserID, err)
		}
	})
}

// Maintenance applies the zone and trade retention policies.
func (l *ScanLoop) Maintenance(ctx context.Context) {
	now := l.now().UTC()
	if d := l.cfg.ZoneRetention(); d > 0 {
		n, err := l.zones.Purge(ctx, now.Add(-d))
		if err != nil {
			logger.Error("purge zones: %v", err)
		} else {
			logger.Info("purged %d invalidated zones older than %s", n, d)
		}
	}
	if d := l.cfg.TradeRetention(); d > 0 {
		n, err := l.positions.PurgeClosed(ctx, now.Add(-d))
		if err != nil {
			logger.Error("purge positions: %v", err)
		} else {
			logger.Info("purged %d closed positions older than %s", n, d)
		}
	}
}

func (l *ScanLoop) DailyReport(ctx context.Context) {
	since := l.now().UTC().Add(-24 * time.Hour)
	l.forEach(ctx, l.router.Sessions(), func(ctx context.Context, s *sessions.UserSession) {
		if _, err := s.Report(ctx, since); err != nil {
			logger.Error("user %d report: %v", s.UserID, err)
		}
	})
}

func (l *ScanLoop) syncUsers(ctx context.Context) {
	active, err := l.users.Active(ctx)
	if err != nil {
		logger.Error("load active users: %v, keeping current sessions", err)
		return
	}
	if on, off := l.router.Sync(active); on+off > 0 {
		logger.Info("sessions synced: +%d -%d", on, off)
	}
}

func (l *ScanLoop) forEach(ctx context.Context, list []*sessions.UserSession, fn func(context.Context, *sessions.UserSession)) {
	var g errgroup.Group
	g.SetLimit(max(1, l.cfg.Scan.UserConcurrency))
	for _, s := range list {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	logger.Debug("cron: %s %v", msg, kv)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	logger.Error("cron: %s: %v %v", msg, err, kv)
}
