package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/errors"
	"github.com/wingman2025/birdtarifa/internal/prediction"
)

const (
	defaultPredictionLimit = 10
	maxPredictionLimit     = 50
)

// GetPredictions resolves ranked species predictions for a zone, month and
// hour bucket. The resolution itself never fails; only bad parameters do.
func (c *Controller) GetPredictions(ctx echo.Context) error {
	zone := strings.TrimSpace(ctx.QueryParam("zone"))
	if len(zone) < 2 || len(zone) > 120 {
		return c.HandleError(ctx, errors.Newf("zone must be between 2 and 120 characters").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid zone", 0)
	}

	month, err := strconv.Atoi(ctx.QueryParam("month"))
	if err != nil || month < 1 || month > 12 {
		return c.HandleError(ctx, errors.Newf("month must be an integer between 1 and 12").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid month", 0)
	}

	bucket, err := daypart.Parse(ctx.QueryParam("hour_bucket"))
	if err != nil {
		return c.HandleError(ctx, errors.Newf("hour_bucket must be one of dawn, morning, afternoon, evening").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid hour bucket", 0)
	}

	limit := defaultPredictionLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPredictionLimit {
			return c.HandleError(ctx, errors.Newf("limit must be between 1 and %d", maxPredictionLimit).
				Component("api").
				Category(errors.CategoryValidation).
				Build(), "Invalid limit", 0)
		}
	}

	rows := c.Resolver.Resolve(ctx.Request().Context(), prediction.Request{
		Zone:       zone,
		LocationID: strings.TrimSpace(ctx.QueryParam("zone_id")),
		Month:      month,
		Bucket:     bucket,
		Limit:      limit,
	})
	return ctx.JSON(http.StatusOK, rows)
}
