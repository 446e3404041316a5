package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/looncamp/booking/internal/idempotency"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/rateLimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	RateLimiter        *rateLimit.RateLimiter
	RateLimitPerMinute int
	Idempotency        *idempotency.Idempotency
	CORSOrigins        []string
}

func SetupRouter(h *Handlers, logger observability.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders: []string{"Idempotent-Replayed"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(opts.RateLimiter, opts.RateLimitPerMinute))
		r.Use(IdempotencyMiddleware(opts.Idempotency))

		r.Post("/etickets", h.CreateETicket)
		r.Get("/etickets/{ticketId}", h.GetETicket)
		r.Get("/etickets/{ticketId}/qr", h.TicketQR)
		r.Get("/etickets/{ticketId}/receipt.pdf", h.TicketPDF)
		r.Get("/etickets/{ticketId}/notifications", h.TicketNotifications)

		r.Post("/bookings/quote", h.Quote)
		r.Post("/bookings/checkout", h.Checkout)
		r.Post("/payments/callback", h.PaymentCallback)
	})

	return r
}
