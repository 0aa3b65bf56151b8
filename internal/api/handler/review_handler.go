package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/api/metrics"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

type ReviewHandler struct {
	reviews     ports.ReviewService
	defaultPage int
}

func NewReviewHandler(reviews ports.ReviewService, defaultPageSize int) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, defaultPage: defaultPageSize}
}

// List returns reviews. On the nested route the tour id from the path becomes
// an implicit equality filter.
//
// @Summary      List reviews
// @Tags         reviews
// @Produce      json
// @Param        tourId  path      string  false  "Scope to one tour"
// @Success      200     {object}  map[string]any
// @Router       /v1/reviews [get]
func (h *ReviewHandler) List(c echo.Context) error {
	params := url.Values{}
	for k, vs := range c.QueryParams() {
		params[k] = vs
	}
	if tourID := c.Param("tourId"); tourID != "" {
		params.Set("tour", tourID)
	}

	spec, err := query.NewBuilder(params).
		Filter().
		Sort().
		Project().
		Paginate(h.defaultPage).
		Spec()
	if err != nil {
		return err
	}

	reviews, err := h.reviews.List(c.Request().Context(), spec)
	if err != nil {
		return err
	}
	return respondList(c, http.StatusOK, len(reviews), map[string]any{"reviews": reviews})
}

// Get returns one review by id.
//
// @Summary      Get a review
// @Tags         reviews
// @Produce      json
// @Param        id   path      string  true  "Review id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Router       /v1/reviews/{id} [get]
func (h *ReviewHandler) Get(c echo.Context) error {
	review, err := h.reviews.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"review": review})
}

// Create stores a review. The author is always the session principal; the
// tour comes from the nested path, falling back to the body.
//
// @Summary      Create a review
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        tourId  path      string               false  "Tour id (nested route)"
// @Param        body    body      createReviewRequest  true   "Review"
// @Success      201     {object}  map[string]any
// @Failure      400     {object}  map[string]string
// @Router       /v1/tours/{tourId}/reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tourID := c.Param("tourId")
	if tourID == "" {
		tourID = req.Tour
	}
	if tourID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tour is required")
	}

	review, err := h.reviews.Create(c.Request().Context(), ports.CreateReviewInput{
		Review: req.Review,
		Rating: req.Rating,
		TourID: tourID,
		UserID: user.ID.Hex(),
	})
	if err != nil {
		return err
	}
	metrics.ReviewsWrittenTotal.WithLabelValues("create").Inc()
	return respond(c, http.StatusCreated, map[string]any{"review": review})
}

// Update changes the text or rating of a review.
//
// @Summary      Update a review
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Review id"
// @Param        body  body      updateReviewRequest  true  "Fields to change"
// @Success      200   {object}  map[string]any
// @Failure      404   {object}  map[string]string
// @Router       /v1/reviews/{id} [patch]
func (h *ReviewHandler) Update(c echo.Context) error {
	var req updateReviewRequest
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

	review, err := h.reviews.Update(c.Request().Context(), c.Param("id"), set)
	if err != nil {
		return err
	}
	metrics.ReviewsWrittenTotal.WithLabelValues("update").Inc()
	return respond(c, http.StatusOK, map[string]any{"review": review})
}

// Delete removes a review.
//
// @Summary      Delete a review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id  path  string  true  "Review id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/reviews/{id} [delete]
func (h *ReviewHandler) Delete(c echo.Context) error {
	if err := h.reviews.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.ReviewsWrittenTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}
