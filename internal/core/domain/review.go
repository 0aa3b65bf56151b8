package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a child resource of a tour. A (tour, author) pair is unique,
// enforced by a compound index at the data layer so concurrent submissions
// cannot race past an application-level check.
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Review    string             `json:"review" bson:"review"`
	Rating    float64            `json:"rating" bson:"rating"`
	TourID    primitive.ObjectID `json:"tour" bson:"tour"`
	UserID    primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// ParseID parses a client-supplied hex identifier. A malformed id can never
// reference a document, so it reports not-found.
func ParseID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// RatingSummary is the grouped aggregation over a tour's reviews.
type RatingSummary struct {
	Count   int64
	Average float64
}
