package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wingman2025/birdtarifa/internal/datastore"
	"github.com/wingman2025/birdtarifa/internal/errors"
)

const (
	defaultSightingLimit = 50
	maxSightingLimit     = 200
)

// SightingCreateIn is the request body for reporting a sighting.
type SightingCreateIn struct {
	Zone         string     `json:"zone"`
	SpeciesGuess string     `json:"species_guess"`
	Notes        string     `json:"notes"`
	PhotoURL     string     `json:"photo_url"`
	ObservedAt   *time.Time `json:"observed_at"`
}

func (c *Controller) CreateSighting(ctx echo.Context) error {
	var payload SightingCreateIn
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, errors.Newf("invalid request body: %v", err).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid request body", 0)
	}

	zone := strings.TrimSpace(payload.Zone)
	if len(zone) < 2 || len(zone) > 120 {
		return c.HandleError(ctx, errors.Newf("zone must be between 2 and 120 characters").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid zone", 0)
	}

	observedAt := time.Now().UTC()
	if payload.ObservedAt != nil {
		observedAt = payload.ObservedAt.UTC()
	}

	sighting := &datastore.Sighting{
		Zone:         zone,
		SpeciesGuess: payload.SpeciesGuess,
		Notes:        payload.Notes,
		PhotoURL:     payload.PhotoURL,
		ObservedAt:   observedAt,
	}
	if err := c.DS.CreateSighting(sighting); err != nil {
		return c.HandleError(ctx, err, "Failed to save sighting", 0)
	}
	return ctx.JSON(http.StatusCreated, sighting)
}

func (c *Controller) ListSightings(ctx echo.Context) error {
	limit := defaultSightingLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSightingLimit {
			return c.HandleError(ctx, errors.Newf("limit must be between 1 and %d", maxSightingLimit).
				Component("api").
				Category(errors.CategoryValidation).
				Build(), "Invalid limit", 0)
		}
		limit = parsed
	}

	sightings, err := c.DS.ListSightings(limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list sightings", 0)
	}
	return ctx.JSON(http.StatusOK, sightings)
}
