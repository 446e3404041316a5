// Package bootstrap opens the backends selected by configuration for the
// binaries under cmd/.
package bootstrap

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/looncamp/booking/internal/adapters/kafka"
	"github.com/looncamp/booking/internal/adapters/postgres"
	"github.com/looncamp/booking/internal/adapters/rabbit"
	"github.com/looncamp/booking/internal/adapters/sqlite"
	"github.com/looncamp/booking/internal/config"
	"github.com/looncamp/booking/internal/eticket"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/outbox"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BrokerRabbit = "rabbit"
	BrokerKafka  = "kafka"
	BrokerLog    = "log"

	NotificationQueue = "looncamp.notifications"
	NotificationKeys  = "notification.*"
)

// Store is what every SQL backend provides.
type Store interface {
	eticket.Store
	eticket.PropertyLookup
	outbox.Store
	Ping(ctx context.Context) error
}

func OpenStore(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, nil, errors.New("DATABASE_DSN is required for the postgres store")
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(cfg.DatabaseDSN); err != nil {
				return nil, nil, err
			}
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to postgres")
		}
		return postgres.NewRepository(pool), pool.Close, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		return store, func() { store.Close() }, nil
	}
	return nil, nil, errors.Newf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// OpenMongo returns a nil database when MONGO_URI is unset.
func OpenMongo(ctx context.Context, cfg *config.Config) (*mongo.Database, func(), error) {
	if cfg.MongoURI == "" {
		return nil, func() {}, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to mongo")
	}
	return client.Database(cfg.MongoDB), func() { client.Disconnect(context.Background()) }, nil
}

// OpenRedis returns nil when REDIS_ADDR is unset.
func OpenRedis(cfg *config.Config) *redisclient.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
}

// OpenBroker returns the outbox broker for BROKER. fallback is used for the
// log broker and may be nil.
func OpenBroker(cfg *config.Config, logger observability.Logger, fallback outbox.Broker) (outbox.Broker, func(), error) {
	switch strings.ToLower(cfg.Broker) {
	case BrokerRabbit:
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to rabbitmq")
		}
		pub, err := rabbit.NewPublisher(conn)
		if err != nil {
			conn.Close()
			return nil, nil, errors.Wrap(err, "open rabbitmq publisher")
		}
		return pub, func() {
			pub.Close()
			conn.Close()
		}, nil
	case BrokerKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, errors.New("KAFKA_BROKERS is required for the kafka broker")
		}
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		return pub, func() { pub.Close() }, nil
	case BrokerLog:
		if fallback != nil {
			return fallback, func() {}, nil
		}
		return outbox.NewLogBroker(logger), func() {}, nil
	}
	return nil, nil, errors.Newf("unknown BROKER %q", cfg.Broker)
}
