package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wingman2025/birdtarifa/internal/errors"
)

// BirdInfoOut echoes the queried species with whatever metadata could be
// found. A species with no match answers 200 with null fields, never an
// error.
type BirdInfoOut struct {
	Species  string  `json:"species"`
	Title    *string `json:"title"`
	Extract  *string `json:"extract"`
	PhotoURL *string `json:"photo_url"`
	PageURL  *string `json:"page_url"`
	Source   *string `json:"source"`
}

func (c *Controller) GetBirdInfo(ctx echo.Context) error {
	species := strings.TrimSpace(ctx.QueryParam("species"))
	if species == "" {
		return c.HandleError(ctx, errors.Newf("species query parameter is required").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Missing species", 0)
	}

	out := BirdInfoOut{Species: species}
	if info := c.BirdInfo.Lookup(ctx.Request().Context(), species); info != nil {
		out.Title = optional(info.Title)
		out.Extract = optional(info.Extract)
		out.PhotoURL = optional(info.PhotoURL)
		out.PageURL = optional(info.PageURL)
		out.Source = optional(info.Source)
	}
	return ctx.JSON(http.StatusOK, out)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
