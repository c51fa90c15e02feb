package models

import (
	"encoding/json"
	"time"
)

// Reading is one PM2.5 observation for a monitoring location.
// Value is in µg/m³; CapturedAt is the sensor timestamp in UTC.
type Reading struct {
	LocationID int64           `json:"location_id"`
	CapturedAt time.Time       `json:"captured_at"`
	Value      float64         `json:"value"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// IngestResult summarises a sync or backfill run. Published counts readings
// handed to the ingest topic instead of the store.
type IngestResult struct {
	Source    string     `json:"source"`
	Fetched   int        `json:"fetched"`
	Inserted  int        `json:"inserted"`
	Skipped   int        `json:"skipped"`
	Published int        `json:"published,omitempty"`
	Latest    *time.Time `json:"latest,omitempty"`
}
