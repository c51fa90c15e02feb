package api

import (
	"context"
	"errors"

	"AirCast/internal/services/forecast"
	"AirCast/internal/usecase"
	xhttp "AirCast/pkg/http"
)

// toAppError maps use case and engine failures onto HTTP statuses.
func toAppError(err error) error {
	var (
		appErr *xhttp.AppError
		ihe    *forecast.InvalidHorizonError
		ide    *forecast.InsufficientDataError
		mle    *forecast.ModelLoadError
		mae    *forecast.ModelApplicationError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &ihe):
		return xhttp.BadRequestError(ihe.Error()).WithParam("max", ihe.Max).WithError(err)
	case errors.As(err, &ide):
		return xhttp.UnprocessableError(ide.Error()).
			WithParam("have", ide.Have).
			WithParam("need", ide.Need).
			WithError(err)
	case errors.As(err, &mle):
		return xhttp.ServiceUnavailableError("forecast models unavailable").WithParam("model", mle.Model).WithError(err)
	case errors.As(err, &mae):
		return xhttp.InternalError("forecast model failed").WithParam("model", mae.Model).WithError(err)
	case errors.Is(err, usecase.ErrNoReadings):
		return xhttp.NotFoundError("no readings stored for this location").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("request timed out").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
