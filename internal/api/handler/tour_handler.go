package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

type TourHandler struct {
	tours       ports.TourService
	defaultPage int
}

func NewTourHandler(tours ports.TourService, defaultPageSize int) *TourHandler {
	return &TourHandler{tours: tours, defaultPage: defaultPageSize}
}

// List returns tours matching the request's filter/sort/fields/pagination
// parameters.
//
// @Summary      List tours
// @Tags         tours
// @Produce      json
// @Param        sort    query  string  false  "Comma-separated sort keys, '-' prefix for descending"
// @Param        fields  query  string  false  "Comma-separated projection"
// @Param        page    query  int     false  "1-based page"
// @Param        limit   query  int     false  "Page size"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]string
// @Router       /v1/tours [get]
func (h *TourHandler) List(c echo.Context) error {
	return h.list(c, c.QueryParams())
}

// TopCheap is the preset alias: five tours, cheapest first and best-rated on
// ties, trimmed to the browsing fields. Client-supplied filters still apply.
//
// @Summary      Top 5 cheap tours
// @Tags         tours
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /v1/tours/top-5-cheap [get]
func (h *TourHandler) TopCheap(c echo.Context) error {
	params := url.Values{}
	for k, vs := range c.QueryParams() {
		params[k] = vs
	}
	params.Set("limit", "5")
	params.Set("sort", "price,-ratingsAverage")
	params.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	return h.list(c, params)
}

func (h *TourHandler) list(c echo.Context, params url.Values) error {
	spec, err := query.NewBuilder(params).
		Filter().
		Sort().
		Project().
		Paginate(h.defaultPage).
		Spec()
	if err != nil {
		return err
	}

	tours, err := h.tours.List(c.Request().Context(), spec)
	if err != nil {
		return err
	}
	return respondList(c, http.StatusOK, len(tours), map[string]any{"tours": tours})
}

// Get returns one tour by id.
//
// @Summary      Get a tour
// @Tags         tours
// @Produce      json
// @Param        id   path      string  true  "Tour id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Router       /v1/tours/{id} [get]
func (h *TourHandler) Get(c echo.Context) error {
	tour, err := h.tours.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"tour": tour})
}

// Create stores a new tour.
//
// @Summary      Create a tour
// @Tags         tours
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      createTourRequest  true  "Tour"
// @Success      201   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Router       /v1/tours [post]
func (h *TourHandler) Create(c echo.Context) error {
	var req createTourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tour, err := h.tours.Create(c.Request().Context(), &domain.Tour{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		ImageCover:    req.ImageCover,
		Images:        req.Images,
		StartDates:    req.StartDates,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, map[string]any{"tour": tour})
}

// Update applies a partial update to a tour.
//
// @Summary      Update a tour
// @Tags         tours
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Tour id"
// @Param        body  body      updateTourRequest  true  "Fields to change"
// @Success      200   {object}  map[string]any
// @Failure      404   {object}  map[string]string
// @Router       /v1/tours/{id} [patch]
func (h *TourHandler) Update(c echo.Context) error {
	var req updateTourRequest
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

	tour, err := h.tours.Update(c.Request().Context(), c.Param("id"), set)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"tour": tour})
}

// Delete removes a tour.
//
// @Summary      Delete a tour
// @Tags         tours
// @Security     BearerAuth
// @Param        id  path  string  true  "Tour id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/tours/{id} [delete]
func (h *TourHandler) Delete(c echo.Context) error {
	if err := h.tours.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns the per-difficulty aggregation.
//
// @Summary      Tour statistics grouped by difficulty
// @Tags         tours
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /v1/tours/stats [get]
func (h *TourHandler) Stats(c echo.Context) error {
	stats, err := h.tours.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"stats": stats})
}

// MonthlyPlan returns tour starts per month for one year.
//
// @Summary      Monthly starting plan for a year
// @Tags         tours
// @Security     BearerAuth
// @Produce      json
// @Param        year  path      int  true  "Calendar year"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Router       /v1/tours/monthly-plan/{year} [get]
func (h *TourHandler) MonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > time.Now().Year()+100 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}

	plan, err := h.tours.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]any{"plan": plan})
}
