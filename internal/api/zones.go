package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ZoneOut is one selectable zone: either a curated rule zone or a nearby
// eBird hotspot.
type ZoneOut struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// ListZones merges curated rule zones with nearby hotspots. Hotspots are
// best-effort: with no eBird client or a failing fetch, only rule zones are
// returned.
func (c *Controller) ListZones(ctx echo.Context) error {
	zones, err := c.DS.DistinctZones()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list zones", 0)
	}

	out := make([]ZoneOut, 0, len(zones))
	for _, zone := range zones {
		out = append(out, ZoneOut{ID: zone, Name: zone, Kind: "geo"})
	}

	if c.EBirdClient != nil {
		geo := c.Settings.EBird.Geo
		hotspots, err := c.EBirdClient.Hotspots(ctx.Request().Context(),
			geo.Latitude, geo.Longitude, geo.DistanceKm, geo.MaxResults)
		if err != nil {
			c.apiLogger.Warn("hotspot fetch failed, returning rule zones only", "error", err)
		} else {
			for _, hotspot := range hotspots {
				out = append(out, ZoneOut{ID: hotspot.ID, Name: hotspot.Name, Kind: "hotspot"})
			}
		}
	}

	return ctx.JSON(http.StatusOK, out)
}
