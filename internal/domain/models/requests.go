package models

// SeriesRequest is bound from the /api/series query string.
type SeriesRequest struct {
	Hours int `query:"hours" json:"hours" default:"48" validate:"gte=1,lte=2160"`
}
