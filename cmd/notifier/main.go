package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/looncamp/booking/internal/adapters/kafka"
	"github.com/looncamp/booking/internal/adapters/rabbit"
	"github.com/looncamp/booking/internal/adapters/whatsapp"
	"github.com/looncamp/booking/internal/bootstrap"
	"github.com/looncamp/booking/internal/config"
	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

type consumer interface {
	Consume(ctx context.Context, handle func(ctx context.Context, routingKey string, body []byte) error) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.SetupOTel(ctx, cfg, "looncamp-notifier")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)
	observability.InitMetrics()

	var c consumer
	switch strings.ToLower(cfg.Broker) {
	case bootstrap.BrokerRabbit:
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer conn.Close()
		c, err = rabbit.NewConsumer(conn, bootstrap.NotificationQueue, bootstrap.NotificationKeys)
		if err != nil {
			log.Fatalf("failed to create consumer: %v", err)
		}
	case bootstrap.BrokerKafka:
		c = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "looncamp-notifier")
	default:
		log.Fatalf("notifier needs BROKER=rabbit or BROKER=kafka, got %q", cfg.Broker)
	}
	defer c.Close()

	sender := whatsapp.NewClient(cfg.WhatsAppGatewayURL, cfg.WhatsAppGatewayToken, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("broker", cfg.Broker).Info("notifier started")
		return c.Consume(gctx, func(ctx context.Context, routingKey string, body []byte) error {
			return notify.Deliver(ctx, sender, logger.WithField("routing_key", routingKey), body)
		})
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.WithField("error", err.Error()).Error("notifier stopped")
	}
	logger.Info("Shutdown notifier")
}
