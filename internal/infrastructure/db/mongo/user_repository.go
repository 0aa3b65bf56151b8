package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository persists principals. The generic store methods are reused
// for the admin surface; the credential-specific lookups and updates live
// here. Plain secrets are never stored — only bcrypt hashes arrive here.
type UserRepository struct {
	*Repository[domain.User]
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		Repository: NewRepository[domain.User](db, collectionUsers),
		col:        db.Collection(collectionUsers),
	}
}

// FindByEmailWithPassword loads an active principal including the password
// hash, for credential verification only.
func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "active": true})
}

// FindByIDWithPassword loads an active principal including the password hash.
func (r *UserRepository) FindByIDWithPassword(ctx context.Context, id string) (*domain.User, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid, "active": true})
}

// FindByResetToken looks a principal up by the stored reset-token hash,
// including the pending reset state the caller validates against.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"password_reset_token": tokenHash, "active": true})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// SetResetToken stores the hashed one-time token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires.UTC(),
	}})
}

// ClearResetToken removes pending reset state, making any outstanding token
// unusable.
func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"$unset": bson.M{
		"password_reset_token":   "",
		"password_reset_expires": "",
	}})
}

// UpdatePassword writes the new hash, stamps the credential-changed
// timestamp and clears reset state in a single atomic document update.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"password":            passwordHash,
			"password_changed_at": changedAt.UTC(),
		},
		"$unset": bson.M{
			"password_reset_token":   "",
			"password_reset_expires": "",
		},
	})
}

// Deactivate soft-disables a principal; it stops authenticating but the
// record is retained.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"active": false}})
}

func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := domain.ParseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "password_reset_token", Value: 1}}},
	})
	return err
}
