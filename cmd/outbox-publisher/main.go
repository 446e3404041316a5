package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/looncamp/booking/internal/bootstrap"
	"github.com/looncamp/booking/internal/config"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/outbox"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.SetupOTel(ctx, cfg, "looncamp-outbox-publisher")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)
	observability.InitMetrics()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer closeStore()

	broker, closeBroker, err := bootstrap.OpenBroker(cfg, logger, nil)
	if err != nil {
		log.Fatalf("failed to open broker: %v", err)
	}
	defer closeBroker()

	relay := outbox.NewRelay(store, broker, logger.WithField("broker", cfg.Broker), cfg.OutboxPollInterval, cfg.OutboxBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.WithField("error", err.Error()).Error("outbox publisher stopped")
	}
	logger.Info("Shutdown outbox publisher")
}
