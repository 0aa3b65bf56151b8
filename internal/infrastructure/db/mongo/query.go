package mongo

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wandertrails/tours-api/internal/core/query"
)

// fieldAliases maps the JSON field names clients filter/sort on to the bson
// field names documents are stored under.
var fieldAliases = map[string]string{
	"createdAt":       "created_at",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"maxGroupSize":    "max_group_size",
	"priceDiscount":   "price_discount",
	"imageCover":      "image_cover",
	"startDates":      "start_dates",
	"id":              "_id",
}

func storedField(name string) string {
	if alias, ok := fieldAliases[name]; ok {
		return alias
	}
	return name
}

// buildFilter translates the spec's conditions into a find filter. Every
// operator, equality included, lands in the per-field clause map so that
// several conditions on the same field merge instead of overwriting each
// other. Values are coerced so numeric comparisons compare numerically.
func buildFilter(spec *query.Spec) bson.M {
	filter := bson.M{}
	for _, c := range spec.Conditions {
		field := storedField(c.Field)

		clause, ok := filter[field].(bson.M)
		if !ok {
			clause = bson.M{}
			filter[field] = clause
		}
		clause["$"+string(c.Op)] = coerce(c.Value)
	}
	return filter
}

// findOptions applies sort, projection and pagination from the spec.
// The identifier survives every projection; skip past the collection end
// simply yields no documents.
func findOptions(spec *query.Spec) *options.FindOptions {
	opts := options.Find()

	if len(spec.Sorts) > 0 {
		sortDoc := make(bson.D, 0, len(spec.Sorts))
		for _, s := range spec.Sorts {
			dir := 1
			if s.Desc {
				dir = -1
			}
			sortDoc = append(sortDoc, bson.E{Key: storedField(s.Field), Value: dir})
		}
		opts.SetSort(sortDoc)
	}

	if len(spec.Fields) > 0 {
		projection := bson.M{"_id": 1}
		for _, f := range spec.Fields {
			projection[storedField(f)] = 1
		}
		opts.SetProjection(projection)
	}

	if spec.Limit > 0 {
		opts.SetSkip(int64(spec.Skip()))
		opts.SetLimit(int64(spec.Limit))
	}
	return opts
}

// coerce turns a raw query literal into the typed value Mongo should compare
// against: ObjectID hex for references, then number, boolean, RFC 3339 or
// plain date, falling back to the string itself.
func coerce(raw string) any {
	if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
		return oid
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return raw
}
