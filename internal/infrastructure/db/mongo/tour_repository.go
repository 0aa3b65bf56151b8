package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

const collectionTours = "tours"

// TourRepository layers the tour aggregations over the generic store.
type TourRepository struct {
	*Repository[domain.Tour]
	col *mongo.Collection
}

func NewTourRepository(db *mongo.Database) *TourRepository {
	return &TourRepository{
		Repository: NewRepository[domain.Tour](db, collectionTours),
		col:        db.Collection(collectionTours),
	}
}

// UpdateRating writes the denormalized summary onto the tour in one atomic
// document update. No other code path writes these two fields.
func (r *TourRepository) UpdateRating(ctx context.Context, tourID string, average float64, quantity int) error {
	oid, err := domain.ParseID(tourID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"ratings_average":  average,
		"ratings_quantity": quantity,
	}})
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats groups tours by difficulty with count, rating and price aggregates.
func (r *TourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$difficulty"},
			{Key: "num_tours", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "num_ratings", Value: bson.D{{Key: "$sum", Value: "$ratings_quantity"}}},
			{Key: "avg_rating", Value: bson.D{{Key: "$avg", Value: "$ratings_average"}}},
			{Key: "avg_price", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "min_price", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "max_price", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avg_price", Value: 1}}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	defer cur.Close(ctx)

	stats := []domain.TourStats{}
	if err := cur.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan unwinds start dates within a year and counts tour starts per
// month.
func (r *TourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$start_dates"}},
		{{Key: "$match", Value: bson.D{
			{Key: "start_dates", Value: bson.D{
				{Key: "$gte", Value: from},
				{Key: "$lte", Value: to},
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$month", Value: "$start_dates"}}},
			{Key: "num_tour_starts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "tours", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "month", Value: "$_id"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}
	defer cur.Close(ctx)

	plan := []domain.MonthlyPlanEntry{}
	if err := cur.All(ctx, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return plan, nil
}

// EnsureIndexes creates the unique name index and the common listing indexes.
func (r *TourRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratings_average", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	})
	return err
}
