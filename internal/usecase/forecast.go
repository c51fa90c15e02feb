package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"AirCast/internal/domain/models"
	drepo "AirCast/internal/domain/repository"
	"AirCast/internal/domain/service"
	"AirCast/internal/services/status"
	"AirCast/pkg/cache"
	applogger "AirCast/pkg/logger"
	"AirCast/pkg/otel"
)

// ForecastUseCase produces the forecast view served to the dashboard.
type ForecastUseCase struct {
	series    *SeriesLoader
	engine    service.Forecaster
	models    service.ModelState
	dashboard *DashboardUseCase
	cache     cache.Service
	ttl       time.Duration
	metrics   drepo.Metrics
	l         *applogger.Logger
}

func NewForecastUseCase(series *SeriesLoader, engine service.Forecaster, models service.ModelState, dashboard *DashboardUseCase, c cache.Service, ttl time.Duration, metrics drepo.Metrics, l *applogger.Logger) *ForecastUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &ForecastUseCase{
		series:    series,
		engine:    engine,
		models:    models,
		dashboard: dashboard,
		cache:     c,
		ttl:       ttl,
		metrics:   metrics,
		l:         l,
	}
}

// forecastKey identifies a forecast by input series, horizon and the model set
// that produced it.
func (u *ForecastUseCase) forecastKey(s models.RegularSeries, horizon int, loadedAt time.Time) string {
	b, _ := json.Marshal(s)
	return cache.GenerateKeyWithParams("forecast",
		u.series.LocationID(),
		horizon,
		loadedAt.UnixNano(),
		cache.HashKey(string(b)),
	)
}

// Forecast returns the forecast for horizon hours with insights and the
// current status. The forecast itself is deterministic, so it is cached.
func (u *ForecastUseCase) Forecast(ctx context.Context, horizon int) (view models.ForecastView, err error) {
	start := time.Now()
	ctx, span := otel.StartSpan(ctx, "usecase.forecast", otel.AttrLocationID.Int64(u.series.LocationID()), otel.AttrHorizon.Int(horizon))
	defer func() {
		u.metrics.RecordLatency("forecast", time.Since(start).Seconds())
		if err != nil {
			u.metrics.RecordForecast("error")
			otel.RecordError(span, err)
		} else {
			u.metrics.RecordForecast("ok")
		}
		span.End()
	}()

	s, err := u.series.Series(ctx)
	if err != nil {
		return view, err
	}
	span.SetAttributes(otel.AttrSeriesLen.Int(len(s)))

	// Cached results belong to one model set; load errors come before the cache.
	loadedAt, err := u.models.Ensure(ctx)
	if err != nil {
		u.l.Warn("forecast models unavailable", applogger.Error(err))
		return view, err
	}

	res, hit, err := cache.GetOrSet(ctx, u.cache, u.forecastKey(s, horizon, loadedAt), u.ttl,
		func(ctx context.Context) (models.ForecastResult, error) {
			return u.engine.ProduceForecast(ctx, s, horizon)
		})
	if err != nil {
		u.l.Warn("forecast failed", applogger.Int("horizon", horizon), applogger.Error(err))
		return view, err
	}
	span.SetAttributes(
		otel.AttrCacheHit.Bool(hit),
		otel.AttrMeanModel.String(res.MeanModel),
		otel.AttrVolModel.String(res.VolatilityModel),
	)

	view.Forecast = res
	view.Cached = hit
	cur, err := u.dashboard.Current(ctx)
	switch {
	case err == nil:
		view.Current = &cur
		view.Insights = status.Insights(res, cur.AQI.Advice, u.dashboard.Zone())
	case errors.Is(err, ErrNoReadings):
		view.Insights = status.Insights(res, "", u.dashboard.Zone())
	default:
		return view, err
	}
	return view, nil
}
