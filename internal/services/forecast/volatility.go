package forecast

import "fmt"

// VolatilityForecaster wraps a VarianceModel. The variance path does not
// depend on the input series.
type VolatilityForecaster struct {
	model VarianceModel
}

func NewVolatilityForecaster(model VarianceModel) *VolatilityForecaster {
	return &VolatilityForecaster{model: model}
}

// Forecast returns the variance for steps 1..horizon.
func (f *VolatilityForecaster) Forecast(horizon int) ([]float64, error) {
	v, err := f.model.Forecast(horizon)
	if err != nil {
		return nil, err
	}
	if len(v) != horizon {
		return nil, &ModelApplicationError{
			Model:  "volatility",
			Reason: fmt.Sprintf("variance path has %d steps, want %d", len(v), horizon),
		}
	}
	return v, nil
}
