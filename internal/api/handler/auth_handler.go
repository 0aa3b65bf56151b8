package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/api/metrics"
	"github.com/wandertrails/tours-api/internal/api/middleware"
	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
)

// RateLimitPolicy caps attempts against the credential endpoints per client
// address.
type RateLimitPolicy struct {
	LoginLimit  int
	ForgotLimit int
	Window      time.Duration
}

type AuthHandler struct {
	auth      ports.AuthService
	limiter   ports.RateLimiter
	policy    RateLimitPolicy
	cookieTTL time.Duration
}

func NewAuthHandler(auth ports.AuthService, limiter ports.RateLimiter, policy RateLimitPolicy, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter, policy: policy, cookieTTL: cookieTTL}
}

// Signup registers a new account and logs it in.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Router       /v1/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.auth.Signup(c.Request().Context(), ports.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return respond(c, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login authenticates credentials and returns an access token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.throttle(c, "login", h.policy.LoginLimit); err != nil {
		return err
	}

	user, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	h.setSessionCookie(c, token)
	return respond(c, http.StatusOK, authResponse{Token: token, User: user})
}

// ForgotPassword mails a one-time reset token to the account's address. The
// response is identical whether or not the address exists.
//
// @Summary      Request a password reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      429   {object}  map[string]string
// @Router       /v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.throttle(c, "forgot", h.policy.ForgotLimit); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s://%s/v1/auth/reset-password", c.Scheme(), c.Request().Host)
	err := h.auth.ForgotPassword(c.Request().Context(), req.Email, resetURL)
	switch {
	case err == nil:
		metrics.ResetTokensIssuedTotal.Inc()
	case errors.Is(err, domain.ErrNotFound):
		// Unknown address: same response, nothing issued.
	default:
		return err
	}

	return respond(c, http.StatusOK, messageResponse{Message: "token sent to email"})
}

// ResetPassword consumes the mailed token and sets a new password.
//
// @Summary      Reset password with a one-time token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Plain reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  authResponse
// @Failure      400    {object}  map[string]string
// @Router       /v1/auth/reset-password/{token} [patch]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.auth.ResetPassword(c.Request().Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return respond(c, http.StatusOK, authResponse{Token: token})
}

// UpdatePassword rotates the password of the logged-in principal.
//
// @Summary      Change own password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      updatePasswordRequest  true  "Current and new password"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/update-password [patch]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.auth.UpdatePassword(c.Request().Context(), user.ID.Hex(), req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return respond(c, http.StatusOK, authResponse{Token: token})
}

// throttle enforces the per-address attempt cap for one scope.
func (h *AuthHandler) throttle(c echo.Context, scope string, limit int) error {
	if h.limiter == nil || limit <= 0 {
		return nil
	}
	ok, err := h.limiter.Allow(c.Request().Context(), scope+":"+c.RealIP(), limit, h.policy.Window)
	if err != nil {
		return err
	}
	if !ok {
		metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
		return domain.ErrRateLimited
	}
	return nil
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
