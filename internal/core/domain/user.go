package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the fixed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User models an authenticated principal. The bcrypt hash and the pending
// reset-token state never appear in a JSON response.
type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email" bson:"email"`
	Photo    string             `json:"photo,omitempty" bson:"photo,omitempty"`
	Role     string             `json:"role" bson:"role"`
	Password string             `json:"-" bson:"password"`

	PasswordChangedAt    time.Time `json:"-" bson:"password_changed_at"`
	PasswordResetToken   string    `json:"-" bson:"password_reset_token,omitempty"`
	PasswordResetExpires time.Time `json:"-" bson:"password_reset_expires,omitempty"`

	Active    bool      `json:"-" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ChangedPasswordAfter reports whether the credential changed after the given
// token issue time. Comparison is at whole-second resolution, matching the
// precision of JWT iat claims.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}
