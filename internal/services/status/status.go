package status

import (
	"math"
	"time"

	"AirCast/internal/domain/models"
)

// AdvisoryThreshold is the PM2.5 peak (µg/m³) above which a health advisory is raised.
const AdvisoryThreshold = 35.0

const (
	colorGreen  = "#2ecc71"
	colorYellow = "#f1c40f"
	colorRed    = "#e74c3c"
)

// AQI classifies a PM2.5 concentration.
func AQI(value float64) models.AQIStatus {
	switch {
	case value <= 12:
		return models.AQIStatus{Category: models.AQIGood, Color: colorGreen, Advice: "Safe for all outdoor activities."}
	case value <= 35:
		return models.AQIStatus{Category: models.AQIModerate, Color: colorYellow, Advice: "Sensitive groups should reduce exertion."}
	default:
		return models.AQIStatus{Category: models.AQIUnhealthy, Color: colorRed, Advice: "Avoid prolonged outdoor exposure."}
	}
}

// HealthPolicy holds the freshness thresholds for DataHealth.
type HealthPolicy struct {
	ActiveWithin  time.Duration
	DelayedWithin time.Duration
}

// DefaultHealthPolicy is 1.5h active, 3h delayed.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{ActiveWithin: 90 * time.Minute, DelayedWithin: 3 * time.Hour}
}

// Health classifies how stale lastSeen is at now.
func (p HealthPolicy) Health(lastSeen, now time.Time) models.DataHealth {
	age := now.Sub(lastSeen)
	h := models.DataHealth{LastSeen: lastSeen, Age: age, AgeMinutes: math.Round(age.Minutes()*10) / 10}
	switch {
	case age < p.ActiveWithin:
		h.State, h.Color = models.SyncActive, colorGreen
	case age < p.DelayedWithin:
		h.State, h.Color = models.SyncDelayed, colorYellow
	default:
		h.State, h.Color = models.SyncOffline, colorRed
	}
	return h
}

// Insights summarises a forecast. advice is the current AQI advice appended
// to the recommendation. The peak hour is shown in zone (UTC when nil).
func Insights(res models.ForecastResult, advice string, zone *time.Location) models.Insights {
	var in models.Insights
	if len(res.Points) == 0 {
		return in
	}
	peak := res.Points[0]
	var sum, volSum float64
	for _, p := range res.Points {
		if p.Point > peak.Point {
			peak = p
		}
		sum += p.Point
		volSum += p.Volatility
	}
	n := float64(len(res.Points))
	in.PeakValue = round(peak.Point, 1)
	in.PeakTime = peak.Time
	if zone == nil {
		zone = time.UTC
	}
	in.PeakHour = peak.Time.In(zone).Format("15:00")
	in.PeakZone = zone.String()
	in.Mean = round(sum/n, 1)
	in.RiskScore = round(volSum/n, 2)
	in.Advisory = in.PeakValue > AdvisoryThreshold
	if in.Advisory {
		in.Recommendation = "Health Advisory: pollution levels are expected to spike. " + advice
	} else {
		in.Recommendation = "Clear Air Outlook: conditions are expected to remain stable. " + advice
	}
	return in
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
