package domain

import "errors"

// Operational errors. Each maps to exactly one HTTP status in the central
// error handler; anything not listed here is treated as internal and its
// details are suppressed from the client.
var (
	// ErrMalformedQuery rejects unknown filter operators and unparsable
	// pagination values.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the response does not reveal which one failed.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrUnauthenticated: no token on a protected route.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidSession: token malformed or signature mismatch.
	ErrInvalidSession = errors.New("invalid session token")
	// ErrSessionExpired: token validity window elapsed.
	ErrSessionExpired = errors.New("session token expired")
	// ErrStaleSession: credential changed after the token was issued.
	ErrStaleSession = errors.New("password changed after token was issued")
	// ErrPrincipalGone: well-formed token referencing a deleted or
	// deactivated account. Deliberately distinct from ErrInvalidSession.
	ErrPrincipalGone = errors.New("principal no longer exists")

	ErrForbidden = errors.New("access forbidden")
	ErrNotFound  = errors.New("resource not found")

	// ErrDuplicate surfaces a unique-index violation, e.g. a second review
	// for the same (tour, author) pair.
	ErrDuplicate = errors.New("duplicate field value")

	// ErrResetTokenInvalid: reset token unknown, already consumed, or expired.
	ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")

	// ErrPasswordMismatch: password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrMailDelivery: the outbound notification collaborator failed; the
	// caller must have rolled back any reset-token state before returning it.
	ErrMailDelivery = errors.New("failed to deliver notification email")

	// ErrRateLimited: too many attempts against a credential endpoint.
	ErrRateLimited = errors.New("too many requests")
)
