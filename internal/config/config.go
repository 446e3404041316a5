package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	LogLevel    string
	StoreDriver string
	DatabaseDSN string
	SQLitePath  string
	AutoMigrate bool

	PropertySource string
	MongoURI       string
	MongoDB        string
	RedisAddr      string

	Broker       string
	RabbitURL    string
	KafkaBrokers []string
	KafkaTopic   string
	OTLPEndpoint string

	PublicBaseURL  string
	DefaultMapLink string
	BrandName      string
	HostDomain     string
	HostPhone      string
	OwnerPhone     string
	AdminPhone     string

	WhatsAppSendURL      string
	WhatsAppGatewayURL   string
	WhatsAppGatewayToken string

	PaymentGateway string
	PaymentLatency time.Duration
	PaymentTimeout time.Duration

	NotifyStagger      time.Duration
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	IdempotencyTTL     time.Duration
	TicketCacheTTL     time.Duration
	RateLimitPerMinute int
	CORSOrigins        []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	hostPhone := getEnv("HOST_PHONE", "918669505727")

	return &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		SQLitePath:  getEnv("SQLITE_PATH", "file:looncamp.db?cache=shared"),
		AutoMigrate: getBool("AUTO_MIGRATE", true),

		PropertySource: getEnv("PROPERTY_SOURCE", "sql"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnv("MONGO_DB", "looncamp"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),

		Broker:       getEnv("BROKER", "log"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "looncamp.notifications"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "https://looncamp.shop"), "/"),
		DefaultMapLink: getEnv("DEFAULT_MAP_LINK", "https://maps.app.goo.gl/PawnaLake"),
		BrandName:      getEnv("BRAND_NAME", "LOONCAMP"),
		HostDomain:     getEnv("HOST_DOMAIN", "LoonCamp.shop"),
		HostPhone:      hostPhone,
		OwnerPhone:     getEnv("OWNER_PHONE", hostPhone),
		AdminPhone:     getEnv("ADMIN_PHONE", hostPhone),

		WhatsAppSendURL:      getEnv("WHATSAPP_SEND_URL", "https://api.whatsapp.com/send"),
		WhatsAppGatewayURL:   os.Getenv("WHATSAPP_GATEWAY_URL"),
		WhatsAppGatewayToken: os.Getenv("WHATSAPP_GATEWAY_TOKEN"),

		PaymentGateway: getEnv("PAYMENT_GATEWAY", "simulated"),
		PaymentLatency: getDuration("PAYMENT_LATENCY", 3*time.Second),
		PaymentTimeout: getDuration("PAYMENT_TIMEOUT", 5*time.Minute),

		NotifyStagger:      getDuration("NOTIFY_STAGGER", 2*time.Second),
		OutboxPollInterval: getDuration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:    getInt("OUTBOX_BATCH_SIZE", 20),

		IdempotencyTTL:     getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		TicketCacheTTL:     getDuration("TICKET_CACHE_TTL", time.Hour),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSOrigins:        getList("CORS_ORIGINS"),
	}, nil
}

// TicketURL is the public receipt page for a ticket.
func (c *Config) TicketURL(ticketID string) string {
	return c.PublicBaseURL + "/ticket/" + ticketID
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func getList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
