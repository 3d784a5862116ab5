package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/challengemarket/internal/server"
	"github.com/alanyoungcy/challengemarket/internal/server/handler"
	"github.com/alanyoungcy/challengemarket/internal/server/ws"
	"github.com/alanyoungcy/challengemarket/internal/service"
)

// Serve builds the service layer on top of the wired dependencies and runs
// the HTTP server, WebSocket hub, ledger health prober, and the archive
// scheduler until the context is cancelled.
func (a *App) Serve(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	// Services.
	aggregator := service.NewAggregator(deps.BetStore, deps.SummaryCache, a.logger)
	bettingSvc := service.NewBettingService(
		deps.ChallengeStore, deps.BetStore, deps.Solana,
		aggregator, deps.SignalBus, deps.AuditStore, a.logger,
	)
	challengeSvc := service.NewChallengeService(
		deps.ChallengeStore, deps.BetStore, aggregator,
		deps.SignalBus, deps.AuditStore, a.logger,
	)

	// Ledger RPC health prober.
	ledgerHealth := service.NewLedgerHealth(deps.Solana, a.cfg.Solana.ProbeInterval.Duration, a.logger)
	g.Go(func() error {
		return ledgerHealth.Run(ctx)
	})

	// WebSocket hub bridging the signal bus to connected clients.
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// Periodic bet archival.
	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	// A nil *Archiver must stay a nil interface inside the admin handler.
	var archiver handler.Archiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
	}

	// HTTP server.
	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			AdminAPIKey: a.cfg.Server.AdminAPIKey,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:     handler.NewHealthHandler(ledgerHealth),
			Challenges: handler.NewChallengeHandler(challengeSvc, a.logger),
			Bets:       handler.NewBetHandler(bettingSvc, a.logger),
			Admin:      handler.NewAdminHandler(archiver, a.cfg.Archive.RetentionDays, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// runArchiveLoop periodically exports bets older than the retention window
// to blob storage. Failures are logged and retried on the next tick.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(a.cfg.Archive.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			before := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
			count, err := deps.Archiver.ArchiveBets(ctx, before)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive run failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if count > 0 {
				a.logger.InfoContext(ctx, "archived bets",
					slog.Int64("count", count),
					slog.Time("before", before),
				)
			}
		}
	}
}
