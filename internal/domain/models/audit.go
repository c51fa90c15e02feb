package models

import "time"

// AuditReport is a data-quality summary of the clean hourly series.
type AuditReport struct {
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	Hours            int       `json:"hours"`
	Observed         int       `json:"observed"`
	Interpolated     int       `json:"interpolated"`
	Gaps             int       `json:"gaps"`
	ADFStatistic     float64   `json:"adf_statistic"`
	ADFCritical5     float64   `json:"adf_critical_5"`
	Stationary       bool      `json:"stationary"`
	SeasonalStrength float64   `json:"seasonal_strength"`
	VolatilityScore  float64   `json:"volatility_score"`
	Mean             float64   `json:"mean"`
	Max              float64   `json:"max"`
}
