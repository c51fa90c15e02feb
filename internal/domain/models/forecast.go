package models

import "time"

// ForecastPoint is the prediction for one future hour.
type ForecastPoint struct {
	Step       int       `json:"step"`
	Time       time.Time `json:"time"`
	Point      float64   `json:"point"`
	Lower      float64   `json:"lower"`
	Upper      float64   `json:"upper"`
	Volatility float64   `json:"volatility"`
	Clipped    bool      `json:"clipped,omitempty"`
}

// ForecastResult holds Horizon consecutive hourly points after Origin.
type ForecastResult struct {
	Horizon         int             `json:"horizon"`
	Origin          time.Time       `json:"origin"`
	Points          []ForecastPoint `json:"points"`
	MeanModel       string          `json:"mean_model"`
	VolatilityModel string          `json:"volatility_model"`
}

// Insights summarise a forecast for the dashboard.
type Insights struct {
	PeakValue      float64   `json:"peak_value"`
	PeakTime       time.Time `json:"peak_time"`
	PeakHour       string    `json:"peak_hour"` // wall clock in PeakZone
	PeakZone       string    `json:"peak_zone"`
	Mean           float64   `json:"mean"`
	RiskScore      float64   `json:"risk_score"`
	Advisory       bool      `json:"advisory"`
	Recommendation string    `json:"recommendation"`
}

// ForecastView is the API payload for a forecast request.
type ForecastView struct {
	Forecast ForecastResult `json:"forecast"`
	Insights Insights       `json:"insights"`
	Current  *CurrentStatus `json:"current,omitempty"`
	Cached   bool           `json:"cached"`
}
