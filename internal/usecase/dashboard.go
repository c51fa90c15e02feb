package usecase

import (
	"context"
	"math"
	"time"

	"AirCast/internal/domain/models"
	"AirCast/internal/services/audit"
	"AirCast/internal/services/status"
)

// DashboardUseCase serves the current status, series tail and data audit.
type DashboardUseCase struct {
	series   *SeriesLoader
	policy   status.HealthPolicy
	location string
	minValue float64
	maxValue float64
	zone     *time.Location
	now      func() time.Time
}

// NewDashboardUseCase creates the use case. zone is the location's local time
// zone; nil means UTC.
func NewDashboardUseCase(series *SeriesLoader, policy status.HealthPolicy, location string, zone *time.Location, minValue, maxValue float64) *DashboardUseCase {
	if zone == nil {
		zone = time.UTC
	}
	return &DashboardUseCase{
		series:   series,
		policy:   policy,
		location: location,
		minValue: minValue,
		maxValue: maxValue,
		zone:     zone,
		now:      time.Now,
	}
}

// Zone is the local time zone of the monitored location.
func (d *DashboardUseCase) Zone() *time.Location { return d.zone }

// Current reports the latest clean value, its AQI category and how fresh the
// feed is. An out-of-range latest reading falls back to the last clean hour.
func (d *DashboardUseCase) Current(ctx context.Context) (models.CurrentStatus, error) {
	latest, err := d.series.Latest(ctx)
	if err != nil {
		return models.CurrentStatus{}, err
	}

	cs := models.CurrentStatus{
		LocationID: latest.LocationID,
		Location:   d.location,
		Value:      latest.Value,
		At:         latest.CapturedAt,
	}
	if !d.inRange(latest.Value) {
		s, err := d.series.Series(ctx)
		if err != nil {
			return models.CurrentStatus{}, err
		}
		last := s.Last()
		cs.Value, cs.At = last.Value, last.Time
	}
	cs.AQI = status.AQI(cs.Value)
	cs.Health = d.policy.Health(latest.CapturedAt, d.now().UTC())
	return cs, nil
}

func (d *DashboardUseCase) inRange(v float64) bool {
	return !math.IsNaN(v) && v >= d.minValue && v <= d.maxValue
}

// Series returns the last hours of the clean series.
func (d *DashboardUseCase) Series(ctx context.Context, hours int) (models.RegularSeries, error) {
	s, err := d.series.Series(ctx)
	if err != nil {
		return nil, err
	}
	return s.Tail(hours), nil
}

// Audit reports data quality over the lookback window.
func (d *DashboardUseCase) Audit(ctx context.Context) (models.AuditReport, error) {
	s, err := d.series.Series(ctx)
	if err != nil {
		return models.AuditReport{}, err
	}
	return audit.Run(s)
}
