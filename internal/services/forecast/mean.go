package forecast

// ExogMissing is the missing-data indicator the mean model was trained with.
// Every hour fed to the model is clean, so it is always 0.
const ExogMissing = "is_missing"

// MeanForecaster runs a SeasonalModel on log-space history and returns
// forecasts in original units.
type MeanForecaster struct {
	model SeasonalModel
	tf    LogTransform
}

// NewMeanForecaster binds a mean model to the transform it was trained under.
func NewMeanForecaster(model SeasonalModel, tf LogTransform) *MeanForecaster {
	return &MeanForecaster{model: model, tf: tf}
}

// Forecast conditions the model on logHistory and projects horizon hours ahead.
func (f *MeanForecaster) Forecast(logHistory []float64, horizon int) ([]float64, error) {
	state, err := f.model.Apply(logHistory, zeroExog(len(logHistory)))
	if err != nil {
		return nil, err
	}
	logPred, err := f.model.Forecast(state, horizon, zeroExog(horizon))
	if err != nil {
		return nil, err
	}
	return f.tf.Inverse(logPred), nil
}

func zeroExog(n int) ExogFrame {
	return ExogFrame{ExogMissing: make([]float64, n)}
}
