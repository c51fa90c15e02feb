package forecast

import "math"

// LogTransform maps concentrations to log(x+Epsilon) and back.
type LogTransform struct {
	Epsilon float64
}

// Forward returns log(x+Epsilon) for every value.
func (t LogTransform) Forward(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log(x + t.Epsilon)
	}
	return out
}

// Inverse returns exp(y)-Epsilon for every value.
func (t LogTransform) Inverse(ys []float64) []float64 {
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = math.Exp(y) - t.Epsilon
	}
	return out
}
