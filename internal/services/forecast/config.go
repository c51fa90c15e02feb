package forecast

import "AirCast/pkg/config"

// Config holds the calibration constants of the pipeline.
type Config struct {
	Epsilon        float64
	Z              float64
	DampingDivisor float64
	MinPoints      int
	MinValue       float64
	MaxValue       float64
	ClipLower      bool
	MaxHorizon     int
	Simulations    int
	Seed           uint64
}

// DefaultConfig mirrors the defaults of the forecast config block.
func DefaultConfig() Config {
	return Config{
		Epsilon:        0.005,
		Z:              1.96,
		DampingDivisor: 10,
		MinPoints:      2,
		MinValue:       0,
		MaxValue:       500,
		ClipLower:      true,
		MaxHorizon:     72,
		Simulations:    1000,
		Seed:           42,
	}
}

// NewConfig extracts the forecast block from the application config.
func NewConfig(c *config.Config) Config {
	f := c.Forecast
	return Config{
		Epsilon:        f.Epsilon,
		Z:              f.Z,
		DampingDivisor: f.DampingDivisor,
		MinPoints:      f.MinPoints,
		MinValue:       f.MinValue,
		MaxValue:       f.MaxValue,
		ClipLower:      f.ClipLower,
		MaxHorizon:     f.MaxHorizon,
		Simulations:    f.Simulations,
		Seed:           f.Seed,
	}
}
