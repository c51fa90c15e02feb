package models

import "time"

// AQICategory buckets a PM2.5 concentration.
type AQICategory string

const (
	AQIGood      AQICategory = "Good"
	AQIModerate  AQICategory = "Moderate"
	AQIUnhealthy AQICategory = "Unhealthy"
)

// AQIStatus is the category with its display colour and advice.
type AQIStatus struct {
	Category AQICategory `json:"category"`
	Color    string      `json:"color"`
	Advice   string      `json:"advice"`
}

// SyncState describes how fresh the stored data is.
type SyncState string

const (
	SyncActive  SyncState = "Active"
	SyncDelayed SyncState = "Delayed"
	SyncOffline SyncState = "Offline"
)

// DataHealth reports the age of the last observation.
type DataHealth struct {
	State      SyncState     `json:"state"`
	Color      string        `json:"color"`
	LastSeen   time.Time     `json:"last_seen"`
	Age        time.Duration `json:"-"`
	AgeMinutes float64       `json:"age_minutes"`
}

// CurrentStatus is the latest clean value with its classification.
type CurrentStatus struct {
	LocationID int64      `json:"location_id"`
	Location   string     `json:"location"`
	Value      float64    `json:"value"`
	At         time.Time  `json:"at"`
	AQI        AQIStatus  `json:"aqi"`
	Health     DataHealth `json:"health"`
}
