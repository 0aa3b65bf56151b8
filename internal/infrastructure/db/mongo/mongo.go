package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// defaultTimeout bounds every single-document operation in this package.
const defaultTimeout = 10 * time.Second

const connectTimeout = 15 * time.Second

// Connect establishes the MongoDB client, verifies connectivity with a ping
// and returns the handle of the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes of every collection. Called once at
// startup; index creation is idempotent.
func EnsureIndexes(ctx context.Context, users *UserRepository, tours *TourRepository, reviews *ReviewRepository) error {
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := tours.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("tour indexes: %w", err)
	}
	if err := reviews.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("review indexes: %w", err)
	}
	return nil
}
