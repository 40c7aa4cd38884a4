package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wingman2025/birdtarifa/internal/datastore"
	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/errors"
)

// PredictionRuleIn is the request body for adding a curated rule.
type PredictionRuleIn struct {
	Zone       string `json:"zone"`
	Month      int    `json:"month"`
	HourBucket string `json:"hour_bucket"`
	Species    string `json:"species"`
	// Weight defaults to 1 when omitted; an explicit 0 is allowed.
	Weight *int `json:"weight"`
}

// SeedResult reports how many demo rules a seed run inserted.
type SeedResult struct {
	Inserted int `json:"inserted"`
}

func (c *Controller) CreatePredictionRule(ctx echo.Context) error {
	var payload PredictionRuleIn
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, errors.Newf("invalid request body: %v", err).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid request body", 0)
	}

	if err := validateRule(&payload); err != nil {
		return c.HandleError(ctx, err, "Invalid prediction rule", 0)
	}

	weight := 1
	if payload.Weight != nil {
		weight = *payload.Weight
	}
	rule := &datastore.PredictionRule{
		Zone:       payload.Zone,
		Month:      payload.Month,
		HourBucket: payload.HourBucket,
		Species:    payload.Species,
		Weight:     weight,
	}
	if err := c.DS.CreatePredictionRule(rule); err != nil {
		return c.HandleError(ctx, err, "Failed to save prediction rule", 0)
	}
	return ctx.JSON(http.StatusCreated, rule)
}

func (c *Controller) SeedPredictionRules(ctx echo.Context) error {
	inserted, err := c.DS.SeedPredictionRules()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to seed prediction rules", 0)
	}
	return ctx.JSON(http.StatusOK, SeedResult{Inserted: inserted})
}

func validateRule(payload *PredictionRuleIn) error {
	payload.Zone = strings.TrimSpace(payload.Zone)
	payload.Species = strings.TrimSpace(payload.Species)

	if len(payload.Zone) < 2 || len(payload.Zone) > 120 {
		return errors.Newf("zone must be between 2 and 120 characters").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if payload.Month < 1 || payload.Month > 12 {
		return errors.Newf("month must be between 1 and 12").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if _, err := daypart.Parse(payload.HourBucket); err != nil {
		return errors.Newf("hour_bucket must be one of dawn, morning, afternoon, evening").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(payload.Species) < 2 || len(payload.Species) > 120 {
		return errors.Newf("species must be between 2 and 120 characters").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if payload.Weight != nil && (*payload.Weight < 0 || *payload.Weight > 999) {
		return errors.Newf("weight must be between 0 and 999").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}
