package api

import (
	"context"
	"net/http"
	"time"

	"AirCast/internal/domain/service"
	xhttp "AirCast/pkg/http"
	xlogger "AirCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	logger  *xlogger.Logger
	store   Pinger
	models  service.ModelState
	timeout time.Duration
}

func NewHealthHandler(logger *xlogger.Logger, store Pinger, ms service.ModelState) *HealthHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &HealthHandler{logger: logger, store: store, models: ms, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

type healthResponse struct {
	Status         string     `json:"status"`
	Store          string     `json:"store"`
	ModelsLoaded   bool       `json:"models_loaded"`
	ModelsLoadedAt *time.Time `json:"models_loaded_at,omitempty"`
}

// Health reports 503 only when the store is unreachable; models load lazily,
// so an empty model cache is reported but not fatal.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res := healthResponse{Status: "ok", Store: "ok"}
	if at := h.models.LoadedAt(); !at.IsZero() {
		res.ModelsLoaded = true
		res.ModelsLoadedAt = &at
	}
	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("store health check failed", xlogger.Error(err))
		res.Status = "degraded"
		res.Store = "unreachable"
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, res)
	}
	return xhttp.SuccessResponse(c, res)
}
