package forecast

import "fmt"

// InsufficientDataError means fewer usable hourly observations than required.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d hourly points, need %d", e.Have, e.Need)
}

// ModelLoadError means an artifact is missing, unreadable, or not applicable.
type ModelLoadError struct {
	Model string
	Path  string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load %s model from %q: %v", e.Model, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// ModelApplicationError means a loaded model could not be applied to the input.
type ModelApplicationError struct {
	Model  string
	Reason string
	Err    error
}

func (e *ModelApplicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apply %s model: %s: %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("apply %s model: %s", e.Model, e.Reason)
}

func (e *ModelApplicationError) Unwrap() error { return e.Err }

// InvalidHorizonError means the requested horizon is outside [1, Max].
type InvalidHorizonError struct {
	Horizon int
	Max     int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("invalid horizon %d: must be between 1 and %d", e.Horizon, e.Max)
}
