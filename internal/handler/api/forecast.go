package api

import (
	"context"
	"strconv"
	"time"

	"AirCast/internal/domain/models"
	"AirCast/internal/domain/service"
	xhttp "AirCast/pkg/http"
	xlogger "AirCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

type Forecaster interface {
	Forecast(ctx context.Context, horizon int) (models.ForecastView, error)
}

type Dashboard interface {
	Current(ctx context.Context) (models.CurrentStatus, error)
	Series(ctx context.Context, hours int) (models.RegularSeries, error)
	Audit(ctx context.Context) (models.AuditReport, error)
}

// ForecastHandler serves the dashboard API under /api.
type ForecastHandler struct {
	logger         *xlogger.Logger
	forecast       Forecaster
	dashboard      Dashboard
	models         service.ModelState
	defaultHorizon int
}

func NewForecastHandler(logger *xlogger.Logger, forecast Forecaster, dashboard Dashboard, ms service.ModelState, defaultHorizon int) *ForecastHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ForecastHandler{
		logger:         logger,
		forecast:       forecast,
		dashboard:      dashboard,
		models:         ms,
		defaultHorizon: defaultHorizon,
	}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.GET("/readings/current", h.Current)
	g.GET("/series", h.Series)
	g.GET("/audit", h.Audit)
	g.POST("/models/reload", h.Reload)
}

// Forecast parses horizon by hand: range checks belong to the engine so
// out-of-range values surface as the engine's typed error.
func (h *ForecastHandler) Forecast(c echo.Context) error {
	horizon := h.defaultHorizon
	if raw := c.QueryParam("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_INTEGER",
				Field:   "horizon",
				Message: "horizon must be an integer",
			}})
		}
		horizon = n
	}

	view, err := h.forecast.Forecast(c.Request().Context(), horizon)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Int("horizon", horizon), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, view)
}

func (h *ForecastHandler) Current(c echo.Context) error {
	cur, err := h.dashboard.Current(c.Request().Context())
	if err != nil {
		h.logger.Error("current usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cur)
}

func (h *ForecastHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.dashboard.Series(c.Request().Context(), req.Hours)
	if err != nil {
		h.logger.Error("series usecase error", xlogger.Int("hours", req.Hours), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *ForecastHandler) Audit(c echo.Context) error {
	rep, err := h.dashboard.Audit(c.Request().Context())
	if err != nil {
		h.logger.Error("audit usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, rep)
}

type reloadResponse struct {
	LoadedAt time.Time `json:"loaded_at"`
}

func (h *ForecastHandler) Reload(c echo.Context) error {
	if err := h.models.Reload(c.Request().Context()); err != nil {
		h.logger.Error("model reload failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	at := h.models.LoadedAt()
	h.logger.Info("models reloaded", xlogger.Time("loaded_at", at))
	return xhttp.SuccessResponse(c, reloadResponse{LoadedAt: at})
}
