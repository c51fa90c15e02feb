package service

import (
	"context"
	"time"

	"AirCast/internal/domain/models"
)

// Forecaster turns a clean hourly series into a banded forecast.
type Forecaster interface {
	ProduceForecast(ctx context.Context, series models.RegularSeries, horizon int) (models.ForecastResult, error)
}

// SeriesPreparer cleans raw readings into a regular hourly series.
type SeriesPreparer interface {
	Prepare(readings []models.Reading) (models.RegularSeries, error)
}

// ModelState reports the loaded model set for health checks and reloads.
type ModelState interface {
	LoadedAt() time.Time
	// Ensure loads the models when none are fresh and returns the load time
	// of the set now in use.
	Ensure(ctx context.Context) (time.Time, error)
	Reload(ctx context.Context) error
}
