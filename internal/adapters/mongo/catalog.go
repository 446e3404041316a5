package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository reads properties from the storefront catalogue.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("properties"),
		logger: logger,
	}
}

type PropertyDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	MapLink     string    `bson:"map_link"`
	Category    string    `bson:"category,omitempty"`
	Price       float64   `bson:"price,omitempty"`
	MaxCapacity int       `bson:"max_capacity,omitempty"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (c *CatalogRepository) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	var doc PropertyDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrapf(domain.ErrNotFound, "property %s", id)
	}
	if err != nil {
		c.logger.WithField("property_id", id).Error("failed to get property", err)
		return nil, errors.Wrap(err, "find property")
	}
	return &domain.Property{ID: doc.ID, Title: doc.Title, MapLink: doc.MapLink}, nil
}

func (c *CatalogRepository) PutProperty(ctx context.Context, p domain.Property) error {
	_, err := c.coll.UpdateOne(
		ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{"title": p.Title, "map_link": p.MapLink, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		c.logger.WithField("property_id", p.ID).Error("failed to upsert property", err)
		return errors.Wrap(err, "upsert property")
	}
	return nil
}

func (c *CatalogRepository) Ping(ctx context.Context) error {
	return c.coll.Database().Client().Ping(ctx, nil)
}
