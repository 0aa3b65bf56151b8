package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/api/middleware"
	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
)

type stubAuthService struct {
	signupFn         func(ctx context.Context, in ports.SignupInput) (*domain.User, string, error)
	loginFn          func(ctx context.Context, email, password string) (*domain.User, string, error)
	forgotFn         func(ctx context.Context, email, resetURL string) error
	resetFn          func(ctx context.Context, plainToken, password, confirm string) (string, error)
	updatePasswordFn func(ctx context.Context, principalID, current, password, confirm string) (string, error)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, string, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email, resetURL string) error {
	return s.forgotFn(ctx, email, resetURL)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, plainToken, password, confirm string) (string, error) {
	return s.resetFn(ctx, plainToken, password, confirm)
}

func (s *stubAuthService) UpdatePassword(ctx context.Context, principalID, current, password, confirm string) (string, error) {
	return s.updatePasswordFn(ctx, principalID, current, password, confirm)
}

type stubLimiter struct {
	allow bool
}

func (l *stubLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return l.allow, nil
}

func testPolicy() RateLimitPolicy {
	return RateLimitPolicy{LoginLimit: 10, ForgotLimit: 3, Window: time.Hour}
}

func TestAuthHandler_Signup(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		signupFn: func(_ context.Context, in ports.SignupInput) (*domain.User, string, error) {
			if in.Email != "alice@example.com" {
				t.Fatalf("unexpected email: %s", in.Email)
			}
			return &domain.User{Name: in.Name, Email: in.Email, Role: domain.RoleUser}, "signed-token", nil
		},
	}
	h := NewAuthHandler(stub, &stubLimiter{allow: true}, testPolicy(), time.Hour)

	body := strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"longenough","passwordConfirm":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Signup(c); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "success" || resp.Data.Token != "signed-token" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	cookieSet := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.AccessCookie && cookie.Value == "signed-token" {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Fatalf("session cookie not set")
	}
}

func TestAuthHandler_Signup_ValidationRejectsMismatch(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, &stubLimiter{allow: true}, testPolicy(), time.Hour)

	body := strings.NewReader(`{"name":"Bob","email":"bob@example.com","password":"longenough","passwordConfirm":"different!"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Signup(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_RateLimited(t *testing.T) {
	e := newEcho()
	called := false
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.User, string, error) {
			called = true
			return nil, "", nil
		},
	}
	h := NewAuthHandler(stub, &stubLimiter{allow: false}, testPolicy(), time.Hour)

	body := strings.NewReader(`{"email":"a@example.com","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if called {
		t.Fatalf("throttled request must not hit the service")
	}
}

func TestAuthHandler_Login_BadCredentialsPassThrough(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*domain.User, string, error) {
			return nil, "", domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, &stubLimiter{allow: true}, testPolicy(), time.Hour)

	body := strings.NewReader(`{"email":"a@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_ForgotPassword_UnknownEmailIndistinct(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		forgotFn: func(context.Context, string, string) error {
			return domain.ErrNotFound
		},
	}
	h := NewAuthHandler(stub, &stubLimiter{allow: true}, testPolicy(), time.Hour)

	body := strings.NewReader(`{"email":"nobody@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/forgot-password", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		resetFn: func(_ context.Context, plainToken, password, confirm string) (string, error) {
			if plainToken != "plain-token" {
				t.Fatalf("token from path not forwarded: %s", plainToken)
			}
			return "fresh-token", nil
		},
	}
	h := NewAuthHandler(stub, &stubLimiter{allow: true}, testPolicy(), time.Hour)

	body := strings.NewReader(`{"password":"longenough","passwordConfirm":"longenough"}`)
	req := httptest.NewRequest(http.MethodPatch, "/v1/auth/reset-password/plain-token", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues("plain-token")

	if err := h.ResetPassword(c); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
