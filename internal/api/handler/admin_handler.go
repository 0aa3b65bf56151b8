package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RatingRepairer is the slice of the dispatcher the admin surface drives.
type RatingRepairer interface {
	EnqueueAll(ctx context.Context) (int, error)
}

// AdminHandler exposes operational endpoints behind the admin role.
type AdminHandler struct {
	repairer RatingRepairer
}

func NewAdminHandler(repairer RatingRepairer) *AdminHandler {
	return &AdminHandler{repairer: repairer}
}

type recomputeResponse struct {
	Queued int `json:"queued"`
}

// RecomputeRatings schedules a rating-summary repair for every tour with
// reviews. The recomputes run asynchronously on the dispatcher workers.
//
// @Summary      Recompute all rating summaries
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      202  {object}  recomputeResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/recompute-ratings [post]
func (h *AdminHandler) RecomputeRatings(c echo.Context) error {
	queued, err := h.repairer.EnqueueAll(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, recomputeResponse{Queued: queued})
}
