package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

const collectionReviews = "reviews"

// ReviewRepository layers the rating aggregation over the generic store.
type ReviewRepository struct {
	*Repository[domain.Review]
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{
		Repository: NewRepository[domain.Review](db, collectionReviews),
		col:        db.Collection(collectionReviews),
	}
}

// RatingSummary groups all reviews referencing the tour into count + mean.
func (r *ReviewRepository) RatingSummary(ctx context.Context, tourID string) (*domain.RatingSummary, error) {
	oid, err := domain.ParseID(tourID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "tour", Value: oid}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Count   int64   `bson:"count"`
		Average float64 `bson:"average"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if len(rows) == 0 {
		return &domain.RatingSummary{}, nil
	}
	return &domain.RatingSummary{Count: rows[0].Count, Average: rows[0].Average}, nil
}

// DistinctTourIDs lists every tour currently referenced by a review; the
// repair path recomputes each of them.
func (r *ReviewRepository) DistinctTourIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.col.Distinct(ctx, "tour", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct tours: %w", err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if oid, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
		}
	}
	return ids, nil
}

// EnsureIndexes creates the unique (tour, user) compound index that enforces
// one review per author per tour at the data layer.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tour", Value: 1}}},
	})
	return err
}
