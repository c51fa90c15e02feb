package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"AirCast/internal/domain/models"
	domsvc "AirCast/internal/domain/service"
)

// Engine combines the mean and volatility forecasts into banded hourly points.
type Engine struct {
	cfg    Config
	models ModelProvider
	tf     LogTransform
}

// NewEngine creates an engine that pulls models from provider.
func NewEngine(cfg Config, provider ModelProvider) *Engine {
	return &Engine{cfg: cfg, models: provider, tf: LogTransform{Epsilon: cfg.Epsilon}}
}

// ProduceForecast validates inputs, fetches the current models and forecasts
// horizon hours after the last point of series.
func (e *Engine) ProduceForecast(ctx context.Context, series models.RegularSeries, horizon int) (models.ForecastResult, error) {
	if err := e.validate(series, horizon); err != nil {
		return models.ForecastResult{}, err
	}
	set, err := e.models.GetOrLoad(ctx)
	if err != nil {
		return models.ForecastResult{}, err
	}
	return e.ProduceForecastWith(set, series, horizon)
}

// ProduceForecastWith forecasts with an explicit model set and no I/O.
func (e *Engine) ProduceForecastWith(set *ModelSet, series models.RegularSeries, horizon int) (models.ForecastResult, error) {
	if err := e.validate(series, horizon); err != nil {
		return models.ForecastResult{}, err
	}
	if set == nil || set.Mean == nil || set.Volatility == nil {
		return models.ForecastResult{}, &ModelApplicationError{Model: "engine", Reason: "model set is incomplete"}
	}

	point, err := NewMeanForecaster(set.Mean, e.tf).Forecast(e.tf.Forward(series.Values()), horizon)
	if err != nil {
		return models.ForecastResult{}, err
	}
	variance, err := NewVolatilityForecaster(set.Volatility).Forecast(horizon)
	if err != nil {
		return models.ForecastResult{}, err
	}
	if len(point) != horizon {
		return models.ForecastResult{}, &ModelApplicationError{
			Model:  "mean",
			Reason: fmt.Sprintf("forecast has %d steps, want %d", len(point), horizon),
		}
	}

	origin := series.Last().Time
	out := models.ForecastResult{
		Horizon:         horizon,
		Origin:          origin,
		Points:          make([]models.ForecastPoint, horizon),
		MeanModel:       set.Mean.Version(),
		VolatilityModel: set.Volatility.Version(),
	}
	for i := 0; i < horizon; i++ {
		if variance[i] < 0 {
			return models.ForecastResult{}, &ModelApplicationError{Model: "volatility", Reason: fmt.Sprintf("negative variance at step %d", i+1)}
		}
		vol := math.Sqrt(variance[i]) / e.cfg.DampingDivisor
		p := point[i]
		fp := models.ForecastPoint{
			Step:       i + 1,
			Time:       origin.Add(time.Duration(i+1) * time.Hour),
			Point:      p,
			Upper:      p + e.cfg.Z*vol,
			Lower:      p - e.cfg.Z*vol,
			Volatility: vol,
		}
		if e.cfg.ClipLower {
			clip(&fp)
		}
		out.Points[i] = fp
	}
	return out, nil
}

// clip keeps the band non-negative while preserving Upper >= Point >= Lower.
func clip(fp *models.ForecastPoint) {
	if fp.Point < 0 {
		fp.Point = 0
		fp.Clipped = true
	}
	if fp.Lower < 0 {
		fp.Lower = 0
		fp.Clipped = true
	}
	if fp.Upper < fp.Point {
		fp.Upper = fp.Point
		fp.Clipped = true
	}
}

func (e *Engine) validate(series models.RegularSeries, horizon int) error {
	if horizon < 1 || horizon > e.cfg.MaxHorizon {
		return &InvalidHorizonError{Horizon: horizon, Max: e.cfg.MaxHorizon}
	}
	need := e.cfg.MinPoints
	if need < 1 {
		need = 1
	}
	if len(series) < need {
		return &InsufficientDataError{Have: len(series), Need: need}
	}
	for i := 1; i < len(series); i++ {
		if d := series[i].Time.Sub(series[i-1].Time); d != time.Hour {
			return &ModelApplicationError{
				Model:  "engine",
				Reason: fmt.Sprintf("series is not hourly at index %d (step %s)", i, d),
			}
		}
	}
	for i, p := range series {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return &ModelApplicationError{Model: "engine", Reason: fmt.Sprintf("non-finite value at index %d", i)}
		}
	}
	return nil
}

var _ domsvc.Forecaster = (*Engine)(nil)
