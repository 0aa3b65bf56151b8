package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/query"
)

// Repository implements the generic store capability {find, findById,
// create, updateById, deleteById} for any document type. It is written once
// and instantiated per collection; resource-specific repositories embed it
// and add their aggregations.
type Repository[T any] struct {
	col *mongo.Collection
}

func NewRepository[T any](db *mongo.Database, collection string) *Repository[T] {
	return &Repository[T]{col: db.Collection(collection)}
}

// Find executes a query specification against the collection.
func (r *Repository[T]) Find(ctx context.Context, spec *query.Spec) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, buildFilter(spec), findOptions(spec))
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return docs, nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc T
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find by id: %w", err)
	}
	return &doc, nil
}

// Create inserts the document and fetches it back so the caller sees the
// generated identifier.
func (r *Repository[T]) Create(ctx context.Context, doc *T) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("insert: %w", err)
	}

	var created T
	if err := r.col.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		return nil, fmt.Errorf("fetch created: %w", err)
	}
	return &created, nil
}

// UpdateByID applies a partial $set update and returns the document as
// stored afterwards.
func (r *Repository[T]) UpdateByID(ctx context.Context, id string, set map[string]any) (*T, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated T
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, after).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("update by id: %w", err)
	}
	return &updated, nil
}

func (r *Repository[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := domain.ParseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
