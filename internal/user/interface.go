package user

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Datastore is the subset of the MongoDB datasource the store uses.
type Datastore interface {
	InsertOne(ctx context.Context, collection string, document any) (any, error)
	FindOne(ctx context.Context, collection string, filter, result any) error
	UpdateByID(ctx context.Context, collection string, id, update any) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter any) (int64, error)
	CreateIndexes(ctx context.Context, collection string, models []mongo.IndexModel) ([]string, error)
}
