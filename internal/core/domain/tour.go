package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// DefaultRatingsAverage is the rating a tour reverts to when it has no
// reviews. New tours start here as well.
const DefaultRatingsAverage = 4.5

// Tour is the reviewable parent resource. RatingsAverage and RatingsQuantity
// form the denormalized aggregate summary: they are owned by the rating
// recompute path and must never be written by resource handlers.
type Tour struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Slug          string             `json:"slug,omitempty" bson:"slug,omitempty"`
	Duration      int                `json:"duration" bson:"duration"`
	MaxGroupSize  int                `json:"maxGroupSize" bson:"max_group_size"`
	Difficulty    string             `json:"difficulty" bson:"difficulty"`
	Price         float64            `json:"price" bson:"price"`
	PriceDiscount float64            `json:"priceDiscount,omitempty" bson:"price_discount,omitempty"`
	Summary       string             `json:"summary" bson:"summary"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover    string             `json:"imageCover,omitempty" bson:"image_cover,omitempty"`
	Images        []string           `json:"images,omitempty" bson:"images,omitempty"`
	StartDates    []time.Time        `json:"startDates,omitempty" bson:"start_dates,omitempty"`

	RatingsAverage  float64 `json:"ratingsAverage" bson:"ratings_average"`
	RatingsQuantity int     `json:"ratingsQuantity" bson:"ratings_quantity"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// TourStats is one row of the per-difficulty aggregation.
type TourStats struct {
	Difficulty string  `json:"difficulty" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"num_tours"`
	NumRatings int     `json:"numRatings" bson:"num_ratings"`
	AvgRating  float64 `json:"avgRating" bson:"avg_rating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avg_price"`
	MinPrice   float64 `json:"minPrice" bson:"min_price"`
	MaxPrice   float64 `json:"maxPrice" bson:"max_price"`
}

// MonthlyPlanEntry is one row of the starts-per-month aggregation.
type MonthlyPlanEntry struct {
	Month    int      `json:"month" bson:"month"`
	NumTours int      `json:"numTourStarts" bson:"num_tour_starts"`
	Tours    []string `json:"tours" bson:"tours"`
}
