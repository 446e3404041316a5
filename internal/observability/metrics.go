package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "looncamp_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	TicketsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "looncamp_etickets_created_total",
			Help: "E-ticket create attempts by result",
		},
		[]string{"result"},
	)

	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "looncamp_checkouts_total",
			Help: "Checkout runs by outcome",
		},
		[]string{"outcome"},
	)

	DBTxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "looncamp_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	PaymentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "looncamp_payment_seconds",
			Help:    "Time spent waiting on the payment gateway",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "looncamp_outbox_lag_seconds",
			Help: "Lag between a record becoming due and being published",
		},
	)

	OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "looncamp_outbox_records_total",
			Help: "Outbox records processed by status",
		},
		[]string{"status"},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "looncamp_notifications_total",
			Help: "Notification deliveries by audience and result",
		},
		[]string{"audience", "result"},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "looncamp_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)

var registerOnce sync.Once

func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, TicketsCreated, CheckoutsTotal, DBTxDuration, PaymentDuration,
			OutboxLag, OutboxPublished, NotificationsSent, RateLimitExceeded)
	})
}
