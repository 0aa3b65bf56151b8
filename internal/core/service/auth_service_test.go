package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

type stubUserRepo struct {
	users map[string]*domain.User // keyed by id hex
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Find(_ context.Context, _ *query.Spec) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicate
		}
	}
	clone := cloneUser(user)
	if clone.ID.IsZero() {
		clone.ID = primitive.NewObjectID()
	}
	r.users[clone.ID.Hex()] = cloneUser(clone)
	return clone, nil
}

func (r *stubUserRepo) UpdateByID(_ context.Context, id string, set map[string]any) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if name, ok := set["name"].(string); ok {
		u.Name = name
	}
	if email, ok := set["email"].(string); ok {
		u.Email = email
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) FindByEmailWithPassword(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.Active {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) FindByIDWithPassword(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok && u.Active {
		return cloneUser(u), nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, tokenHash string) (*domain.User, error) {
	for _, u := range r.users {
		if u.PasswordResetToken == tokenHash && u.Active {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordResetToken = tokenHash
	u.PasswordResetExpires = expires
	return nil
}

func (r *stubUserRepo) ClearResetToken(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Password = passwordHash
	u.PasswordChangedAt = changedAt
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
	return nil
}

func (r *stubUserRepo) Deactivate(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Active = false
	return nil
}

type stubMailer struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	to, subject, body string
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newAuthFixture() (*AuthService, *stubUserRepo, *stubMailer, *TokenService) {
	repo := newStubUserRepo()
	tokens := NewTokenService("secret", time.Hour, 10*time.Minute)
	mailer := &stubMailer{}
	svc := NewAuthService(repo, tokens, mailer, zerolog.Nop())
	return svc, repo, mailer, tokens
}

func TestAuthService_Signup(t *testing.T) {
	svc, _, _, tokens := newAuthFixture()

	user, token, err := svc.Signup(context.Background(), ports.SignupInput{
		Name:            "Alice",
		Email:           "Alice@Example.com",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("new principals must be plain users, got %s", user.Role)
	}
	if !user.Active {
		t.Fatalf("new principals must start active")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalised: %s", user.Email)
	}
	if user.Password == "correct-horse" {
		t.Fatalf("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct-horse")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	claims, err := tokens.VerifyAccess(token)
	if err != nil {
		t.Fatalf("signup token invalid: %v", err)
	}
	if claims.PrincipalID != user.ID.Hex() {
		t.Fatalf("token bound to wrong principal: %s", claims.PrincipalID)
	}
}

func TestAuthService_Signup_ConfirmMismatch(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	_, _, err := svc.Signup(context.Background(), ports.SignupInput{
		Name:            "Bob",
		Email:           "bob@example.com",
		Password:        "one-password",
		PasswordConfirm: "another-one",
	})
	if !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	signup(t, svc, "carol@example.com", "s3cret-pass")

	user, token, err := svc.Login(context.Background(), "carol@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.Password != "" {
		t.Fatalf("hash leaked from login")
	}
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	signup(t, svc, "dave@example.com", "s3cret-pass")

	// Unknown email and wrong password must be indistinguishable.
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret-pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ForgotPassword(t *testing.T) {
	svc, repo, mailer, tokens := newAuthFixture()
	user := signup(t, svc, "erin@example.com", "s3cret-pass")

	if err := svc.ForgotPassword(context.Background(), "erin@example.com", "https://api.test/v1/auth/reset-password"); err != nil {
		t.Fatalf("forgot: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "erin@example.com" {
		t.Fatalf("mail sent to %s", mail.to)
	}

	stored := repo.users[user.ID.Hex()]
	if stored.PasswordResetToken == "" {
		t.Fatalf("reset hash not persisted")
	}
	if strings.Contains(mail.body, stored.PasswordResetToken) {
		t.Fatalf("mail contains the stored hash instead of the plain token")
	}

	// The plain token in the mail must hash to the stored value.
	plain := extractToken(t, mail.body)
	if tokens.HashResetToken(plain) != stored.PasswordResetToken {
		t.Fatalf("mailed token does not hash to stored value")
	}
}

func TestAuthService_ForgotPassword_MailFailureRollsBack(t *testing.T) {
	svc, repo, mailer, _ := newAuthFixture()
	user := signup(t, svc, "frank@example.com", "s3cret-pass")
	mailer.fail = true

	err := svc.ForgotPassword(context.Background(), "frank@example.com", "https://api.test/v1/auth/reset-password")
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}

	stored := repo.users[user.ID.Hex()]
	if stored.PasswordResetToken != "" || !stored.PasswordResetExpires.IsZero() {
		t.Fatalf("reset state must be rolled back when delivery fails")
	}
}

func TestAuthService_ResetPassword_SingleUse(t *testing.T) {
	svc, repo, mailer, tokens := newAuthFixture()
	user := signup(t, svc, "grace@example.com", "old-password")

	if err := svc.ForgotPassword(context.Background(), "grace@example.com", "https://api.test/v1/auth/reset-password"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	plain := extractToken(t, mailer.sent[0].body)

	token, err := svc.ResetPassword(context.Background(), plain, "new-password", "new-password")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := tokens.VerifyAccess(token); err != nil {
		t.Fatalf("fresh token invalid: %v", err)
	}

	stored := repo.users[user.ID.Hex()]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-password")); err != nil {
		t.Fatalf("new password not stored: %v", err)
	}
	if stored.PasswordChangedAt.IsZero() {
		t.Fatalf("passwordChangedAt not stamped")
	}

	// Second consumption of the same token must fail.
	if _, err := svc.ResetPassword(context.Background(), plain, "another-pass", "another-pass"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestAuthService_ResetPassword_ExpiredToken(t *testing.T) {
	svc, repo, mailer, _ := newAuthFixture()
	user := signup(t, svc, "heidi@example.com", "old-password")

	if err := svc.ForgotPassword(context.Background(), "heidi@example.com", "https://api.test/v1/auth/reset-password"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	repo.users[user.ID.Hex()].PasswordResetExpires = time.Now().Add(-time.Minute)

	plain := extractToken(t, mailer.sent[0].body)
	if _, err := svc.ResetPassword(context.Background(), plain, "new-password", "new-password"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}

func TestAuthService_UpdatePassword(t *testing.T) {
	svc, repo, _, _ := newAuthFixture()
	user := signup(t, svc, "ivan@example.com", "old-password")

	if _, err := svc.UpdatePassword(context.Background(), user.ID.Hex(), "wrong", "new-password", "new-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong current password: expected ErrInvalidCredentials, got %v", err)
	}

	token, err := svc.UpdatePassword(context.Background(), user.ID.Hex(), "old-password", "new-password", "new-password")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if token == "" {
		t.Fatalf("expected fresh token")
	}

	// Sessions issued before the rotation are now stale.
	stored := repo.users[user.ID.Hex()]
	oldIssue := time.Now().Add(-time.Hour)
	if !stored.ChangedPasswordAfter(oldIssue) {
		t.Fatalf("pre-rotation session not flagged stale")
	}
	// The rotation backdates changedAt so the fresh token is not stale.
	if stored.ChangedPasswordAfter(time.Now()) {
		t.Fatalf("fresh session flagged stale")
	}
}

func signup(t *testing.T, svc *AuthService, email, password string) *domain.User {
	t.Helper()
	user, _, err := svc.Signup(context.Background(), ports.SignupInput{
		Name:            "Test User",
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	if err != nil {
		t.Fatalf("signup fixture: %v", err)
	}
	return user
}

// extractToken pulls the plain token out of the reset mail body, which embeds
// it as the last path segment of the reset URL.
func extractToken(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, "reset-password/")
	if start < 0 {
		t.Fatalf("no reset URL in mail body: %q", body)
	}
	rest := body[start+len("reset-password/"):]
	if end := strings.IndexAny(rest, ". \n"); end > 0 {
		rest = rest[:end]
	}
	return rest
}
