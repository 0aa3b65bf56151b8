package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

// UserHandler serves the self-service surface (me) and the admin user CRUD.
// It sits directly on the repository: user management is pure passthrough
// with no domain logic beyond what the session guard already enforced.
type UserHandler struct {
	users       ports.UserRepository
	defaultPage int
}

func NewUserHandler(users ports.UserRepository, defaultPageSize int) *UserHandler {
	return &UserHandler{users: users, defaultPage: defaultPageSize}
}

type updateMeRequest struct {
	Name  *string `json:"name"  validate:"omitempty,max=80"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo"`
	// Password fields are deliberately absent; rotation goes through the
	// dedicated endpoint so passwordChangedAt is always stamped.
}

func (r *updateMeRequest) setMap() map[string]any {
	set := map[string]any{}
	if r.Name != nil {
		set["name"] = *r.Name
	}
	if r.Email != nil {
		set["email"] = *r.Email
	}
	if r.Photo != nil {
		set["photo"] = *r.Photo
	}
	return set
}

// Me returns the logged-in principal.
//
// @Summary      Get own profile
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"user": user})
}

// UpdateMe changes the profile of the logged-in principal. Credential fields
// are not accepted here.
//
// @Summary      Update own profile
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      updateMeRequest  true  "Profile fields"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Router       /v1/users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	set := req.setMap()
	if len(set) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no updatable fields in payload")
	}

	updated, err := h.users.UpdateByID(c.Request().Context(), user.ID.Hex(), set)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"user": updated})
}

// DeleteMe soft-disables the account. The record is retained; the principal
// simply stops authenticating.
//
// @Summary      Deactivate own account
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Router       /v1/users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.Deactivate(c.Request().Context(), user.ID.Hex()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List is the admin listing with the full query pipeline.
//
// @Summary      List users (admin)
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  map[string]string
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	spec, err := query.NewBuilder(c.QueryParams()).
		Filter().
		Sort().
		Project().
		Paginate(h.defaultPage).
		Spec()
	if err != nil {
		return err
	}

	users, err := h.users.Find(c.Request().Context(), spec)
	if err != nil {
		return err
	}
	return respondList(c, http.StatusOK, len(users), map[string]any{"users": users})
}

// Get returns one user by id (admin).
//
// @Summary      Get a user (admin)
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"user": user})
}

type adminUpdateUserRequest struct {
	Name  *string `json:"name"  validate:"omitempty,max=80"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo"`
	Role  *string `json:"role"  validate:"omitempty,oneof=user guide lead-guide admin"`
}

// Update is the admin profile/role update. Credentials still rotate only
// through the password endpoints.
//
// @Summary      Update a user (admin)
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "User id"
// @Param        body  body      adminUpdateUserRequest  true  "Fields to change"
// @Success      200   {object}  map[string]any
// @Failure      404   {object}  map[string]string
// @Router       /v1/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req adminUpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	set := map[string]any{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if req.Photo != nil {
		set["photo"] = *req.Photo
	}
	if req.Role != nil {
		if !domain.ValidRole(*req.Role) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid role")
		}
		set["role"] = *req.Role
	}
	if len(set) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no updatable fields in payload")
	}

	user, err := h.users.UpdateByID(c.Request().Context(), c.Param("id"), set)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"user": user})
}

// Delete removes a user record outright (admin).
//
// @Summary      Delete a user (admin)
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.DeleteByID(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
