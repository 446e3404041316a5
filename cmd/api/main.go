package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	mongoadapter "github.com/looncamp/booking/internal/adapters/mongo"
	redisadapter "github.com/looncamp/booking/internal/adapters/redis"
	"github.com/looncamp/booking/internal/adapters/whatsapp"
	"github.com/looncamp/booking/internal/bootstrap"
	"github.com/looncamp/booking/internal/checkout"
	"github.com/looncamp/booking/internal/config"
	"github.com/looncamp/booking/internal/eticket"
	httphandler "github.com/looncamp/booking/internal/http"
	"github.com/looncamp/booking/internal/idempotency"
	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/outbox"
	"github.com/looncamp/booking/internal/payment"
	"github.com/looncamp/booking/internal/rateLimit"
	"github.com/looncamp/booking/internal/receipt"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.SetupOTel(ctx, cfg, "looncamp-api")
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
	ready := map[string]httphandler.Pinger{"store": store}

	mongoDB, closeMongo, err := bootstrap.OpenMongo(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer closeMongo()

	var properties eticket.PropertyLookup = store
	var ticketAudit eticket.Auditor
	var paymentAudit checkout.Auditor
	if mongoDB != nil {
		audit := mongoadapter.NewAuditLogger(mongoDB, logger)
		ticketAudit, paymentAudit = audit, audit
		catalog := mongoadapter.NewCatalogRepository(mongoDB, logger)
		ready["mongo"] = catalog
		if strings.EqualFold(cfg.PropertySource, "mongo") {
			properties = catalog
		}
	} else if strings.EqualFold(cfg.PropertySource, "mongo") {
		log.Fatalf("PROPERTY_SOURCE=mongo requires MONGO_URI")
	}

	var (
		cache   eticket.Cache
		idemp   *idempotency.Idempotency
		limiter *rateLimit.RateLimiter
		gateway payment.Gateway = payment.NewSimulated(cfg.PaymentLatency)
		settler httphandler.PaymentSettler
	)
	if client := bootstrap.OpenRedis(cfg); client != nil {
		defer client.Close()
		redisCache := redisadapter.NewCache(client, cfg.TicketCacheTTL)
		cache = redisCache
		ready["redis"] = redisCache
		idemp = idempotency.NewIdempotency(redisadapter.NewIdempotency(client), cfg.IdempotencyTTL)
		limiter = rateLimit.NewRateLimiter(client)
		if strings.EqualFold(cfg.PaymentGateway, "callback") {
			cb := payment.NewCallback(redisadapter.NewPayments(client), 500*time.Millisecond, cfg.PaymentTimeout)
			gateway, settler = cb, cb
		}
	} else if strings.EqualFold(cfg.PaymentGateway, "callback") {
		log.Fatalf("PAYMENT_GATEWAY=callback requires REDIS_ADDR")
	}

	tickets := eticket.NewService(store, properties, cache, ticketAudit, logger)
	composer := notify.NewComposer(notify.Branding{
		Brand:      cfg.BrandName,
		HostDomain: cfg.HostDomain,
		HostPhone:  cfg.HostPhone,
		OwnerPhone: cfg.OwnerPhone,
		AdminPhone: cfg.AdminPhone,
		SendURL:    cfg.WhatsAppSendURL,
		MapLink:    cfg.DefaultMapLink,
	})
	dispatcher := notify.NewDispatcher(composer, store, cfg.NotifyStagger, logger)
	flow := checkout.NewFlow(gateway, tickets, dispatcher, paymentAudit, cfg.TicketURL, logger)

	handlers := httphandler.NewHandlers(httphandler.Deps{
		Tickets:   tickets,
		Flow:      flow,
		Settler:   settler,
		Outbox:    store,
		Receipts:  receipt.NewRenderer(cfg.BrandName, cfg.HostDomain, cfg.HostPhone, cfg.DefaultMapLink),
		TicketURL: cfg.TicketURL,
		Ready:     ready,
		Logger:    logger,
	})
	r := httphandler.SetupRouter(handlers, logger, httphandler.RouterOptions{
		RateLimiter:        limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Idempotency:        idemp,
		CORSOrigins:        cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown Server ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Without a broker there is no separate publisher process, so the
	// outbox is drained here and delivered straight to the messaging client.
	if strings.EqualFold(cfg.Broker, bootstrap.BrokerLog) {
		sender := whatsapp.NewClient(cfg.WhatsAppGatewayURL, cfg.WhatsAppGatewayToken, logger)
		relay := outbox.NewRelay(store, notify.NewDirectBroker(sender, logger), logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithField("error", err.Error()).Error("api stopped")
	}
	logger.Info("Server exiting")
}
