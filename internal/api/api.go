// Package api exposes the HTTP surface: prediction resolution, zones,
// sightings, curated rules, species enrichment and photo uploads.
package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wingman2025/birdtarifa/internal/birdinfo"
	"github.com/wingman2025/birdtarifa/internal/conf"
	"github.com/wingman2025/birdtarifa/internal/datastore"
	"github.com/wingman2025/birdtarifa/internal/ebird"
	"github.com/wingman2025/birdtarifa/internal/errors"
	"github.com/wingman2025/birdtarifa/internal/logging"
	"github.com/wingman2025/birdtarifa/internal/observability"
	"github.com/wingman2025/birdtarifa/internal/photostore"
	"github.com/wingman2025/birdtarifa/internal/prediction"
)

// Controller wires the API routes to their collaborators.
type Controller struct {
	Echo        *echo.Echo
	Group       *echo.Group
	DS          datastore.Interface
	Settings    *conf.Settings
	Resolver    *prediction.Resolver
	EBirdClient *ebird.Client
	BirdInfo    *birdinfo.Service
	Photos      *photostore.Store

	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLoggerClose func() error
}

func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	resolver *prediction.Resolver, ebirdClient *ebird.Client,
	birdInfo *birdinfo.Service, photos *photostore.Store,
	metrics *observability.Metrics) *Controller {

	c := &Controller{
		Echo:        e,
		DS:          ds,
		Settings:    settings,
		Resolver:    resolver,
		EBirdClient: ebirdClient,
		BirdInfo:    birdInfo,
		Photos:      photos,
		metrics:     metrics,
	}

	logger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", slog.LevelInfo)
	if err != nil || logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeFunc = func() error { return nil }
	}
	c.apiLogger = logger
	c.apiLoggerClose = closeFunc

	if len(settings.Server.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     settings.Server.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowCredentials: true,
		}))
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Echo.GET("/", c.Root)
	c.Echo.GET("/health", c.Health)
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	c.Group.GET("/predictions", c.GetPredictions)
	c.Group.GET("/zones", c.ListZones)
	c.Group.GET("/birds/info", c.GetBirdInfo)

	c.Group.GET("/sightings", c.ListSightings)
	c.Group.POST("/sightings", c.CreateSighting)

	c.Group.POST("/prediction-rules", c.CreatePredictionRule)
	c.Group.POST("/prediction-rules/seed", c.SeedPredictionRules)

	c.Group.POST("/uploads/photo", c.UploadPhoto)
	c.Group.DELETE("/uploads/photo", c.DeletePhoto)
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		_ = c.apiLoggerClose()
	}
}

func (c *Controller) Root(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"message": "Bird Tarifa API is running."})
}

func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"env":    c.Settings.Main.Env,
	})
}

// ErrorResponse is the envelope for API errors.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs the error and writes the JSON envelope. The status code
// follows the error category when the caller passes 0.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	if code == 0 {
		code = statusForError(err)
	}
	resp := &ErrorResponse{
		Error:         fmt.Sprintf("%v", err),
		Message:       message,
		Code:          code,
		CorrelationID: uuid.New().String()[:8],
	}
	c.apiLogger.Error("request failed",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", resp.Error,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP())
	return ctx.JSON(code, resp)
}

// statusForError maps error categories to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	case errors.IsCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return http.StatusServiceUnavailable
	case errors.IsCategory(err, errors.CategoryMedia):
		return http.StatusBadGateway
	case errors.IsCategory(err, errors.CategoryNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
