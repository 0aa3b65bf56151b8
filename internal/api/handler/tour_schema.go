package handler

import "time"

type createTourRequest struct {
	Name          string      `json:"name"          validate:"required,min=10,max=40"`
	Duration      int         `json:"duration"      validate:"required,gt=0"`
	MaxGroupSize  int         `json:"maxGroupSize"  validate:"required,gt=0"`
	Difficulty    string      `json:"difficulty"    validate:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price"         validate:"required,gt=0"`
	PriceDiscount float64     `json:"priceDiscount" validate:"omitempty,gt=0"`
	Summary       string      `json:"summary"       validate:"required"`
	Description   string      `json:"description"`
	ImageCover    string      `json:"imageCover"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"startDates"`
}

// updateTourRequest uses pointers so absent fields are distinguishable from
// zero values. The aggregate summary fields are deliberately not mappable;
// only the recompute path writes those.
type updateTourRequest struct {
	Name          *string      `json:"name"          validate:"omitempty,min=10,max=40"`
	Duration      *int         `json:"duration"      validate:"omitempty,gt=0"`
	MaxGroupSize  *int         `json:"maxGroupSize"  validate:"omitempty,gt=0"`
	Difficulty    *string      `json:"difficulty"    validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64     `json:"price"         validate:"omitempty,gt=0"`
	PriceDiscount *float64     `json:"priceDiscount" validate:"omitempty,gt=0"`
	Summary       *string      `json:"summary"`
	Description   *string      `json:"description"`
	ImageCover    *string      `json:"imageCover"`
	Images        *[]string    `json:"images"`
	StartDates    *[]time.Time `json:"startDates"`
}

// setMap translates present fields into the partial update the store applies.
func (r *updateTourRequest) setMap() map[string]any {
	set := map[string]any{}
	if r.Name != nil {
		set["name"] = *r.Name
	}
	if r.Duration != nil {
		set["duration"] = *r.Duration
	}
	if r.MaxGroupSize != nil {
		set["max_group_size"] = *r.MaxGroupSize
	}
	if r.Difficulty != nil {
		set["difficulty"] = *r.Difficulty
	}
	if r.Price != nil {
		set["price"] = *r.Price
	}
	if r.PriceDiscount != nil {
		set["price_discount"] = *r.PriceDiscount
	}
	if r.Summary != nil {
		set["summary"] = *r.Summary
	}
	if r.Description != nil {
		set["description"] = *r.Description
	}
	if r.ImageCover != nil {
		set["image_cover"] = *r.ImageCover
	}
	if r.Images != nil {
		set["images"] = *r.Images
	}
	if r.StartDates != nil {
		set["start_dates"] = *r.StartDates
	}
	return set
}
