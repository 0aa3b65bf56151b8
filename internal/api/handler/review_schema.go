package handler

type createReviewRequest struct {
	Review string  `json:"review" validate:"required"`
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
	// Tour is optional on the nested route, where the path wins.
	Tour string `json:"tour"`
}

// updateReviewRequest maps only the review text and rating; the tour and
// author linkage is immutable through this endpoint.
type updateReviewRequest struct {
	Review *string  `json:"review"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

func (r *updateReviewRequest) setMap() map[string]any {
	set := map[string]any{}
	if r.Review != nil {
		set["review"] = *r.Review
	}
	if r.Rating != nil {
		set["rating"] = *r.Rating
	}
	return set
}
