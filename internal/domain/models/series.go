package models

import "time"

// SeriesPoint is one hour of a RegularSeries.
type SeriesPoint struct {
	Time         time.Time `json:"time"`
	Value        float64   `json:"value"`
	Interpolated bool      `json:"interpolated"`
}

// RegularSeries is a gap-free hourly series ordered by time.
type RegularSeries []SeriesPoint

// Values returns the concentrations in order.
func (s RegularSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Last returns the final point. The series must not be empty.
func (s RegularSeries) Last() SeriesPoint {
	return s[len(s)-1]
}

// Observed counts hours that had at least one raw reading.
func (s RegularSeries) Observed() int {
	n := 0
	for _, p := range s {
		if !p.Interpolated {
			n++
		}
	}
	return n
}

// Tail returns the last n points, or the whole series when shorter.
func (s RegularSeries) Tail(n int) RegularSeries {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
