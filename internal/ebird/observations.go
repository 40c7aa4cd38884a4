package ebird

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/wingman2025/birdtarifa/internal/geo"
)

// RecentNearby fetches recent observations around a geographic point.
// Entries without a species name are dropped; a malformed timestamp keeps
// the entry with an unknown date.
func (c *Client) RecentNearby(ctx context.Context, lat, lng float64, distKm, backDays, maxResults int) ([]Observation, error) {
	query := url.Values{}
	query.Set("lat", formatCoordinate(lat))
	query.Set("lng", formatCoordinate(lng))
	query.Set("dist", strconv.Itoa(distKm))
	query.Set("back", strconv.Itoa(backDays))
	query.Set("maxResults", strconv.Itoa(maxResults))

	var payload []json.RawMessage
	if err := c.doRequest(ctx, "recent_nearby", "/data/obs/geo/recent", query, &payload); err != nil {
		return nil, err
	}

	observations := decodeObservations(payload)
	logger.Debug("Fetched recent nearby observations",
		"lat", lat,
		"lng", lng,
		"dist_km", distKm,
		"back_days", backDays,
		"raw_entries", len(payload),
		"observations", len(observations))
	return observations, nil
}

// RecentByLocation fetches recent observations scoped to a single location
// identifier. A blank locID returns an empty list, not an error.
func (c *Client) RecentByLocation(ctx context.Context, locID string, backDays, maxResults int) ([]Observation, error) {
	locID = strings.TrimSpace(locID)
	if locID == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("back", strconv.Itoa(backDays))
	query.Set("maxResults", strconv.Itoa(maxResults))

	var payload []json.RawMessage
	path := "/data/obs/loc/" + url.PathEscape(locID) + "/recent"
	if err := c.doRequest(ctx, "recent_by_location", path, query, &payload); err != nil {
		return nil, err
	}

	observations := decodeObservations(payload)
	logger.Debug("Fetched recent location observations",
		"loc_id", locID,
		"back_days", backDays,
		"raw_entries", len(payload),
		"observations", len(observations))
	return observations, nil
}

// Hotspots fetches points of interest near a geographic point, sorted by
// distance ascending with ties broken by case-insensitive name. Responses
// are reference data and may be served from the client cache.
func (c *Client) Hotspots(ctx context.Context, lat, lng float64, distKm, maxResults int) ([]Hotspot, error) {
	cacheKey := fmt.Sprintf("hotspots:%s:%s:%d:%d", formatCoordinate(lat), formatCoordinate(lng), distKm, maxResults)
	if cached, found := c.cache.Get(cacheKey); found {
		if hotspots, ok := cached.([]Hotspot); ok {
			logger.Debug("Hotspot cache hit", "cache_key", cacheKey, "hotspots", len(hotspots))
			return hotspots, nil
		}
	}

	query := url.Values{}
	query.Set("lat", formatCoordinate(lat))
	query.Set("lng", formatCoordinate(lng))
	query.Set("dist", strconv.Itoa(distKm))
	query.Set("fmt", "json")

	var payload []json.RawMessage
	if err := c.doRequest(ctx, "hotspots", "/ref/hotspot/geo", query, &payload); err != nil {
		return nil, err
	}

	if maxResults > 0 && len(payload) > maxResults {
		payload = payload[:maxResults]
	}

	hotspots := make([]Hotspot, 0, len(payload))
	for _, raw := range payload {
		hotspot, ok := decodeHotspot(raw)
		if !ok {
			continue
		}
		hotspot.DistanceKm = geo.HaversineKm(lat, lng, hotspot.Latitude, hotspot.Longitude)
		hotspots = append(hotspots, hotspot)
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		if hotspots[i].DistanceKm != hotspots[j].DistanceKm {
			return hotspots[i].DistanceKm < hotspots[j].DistanceKm
		}
		return strings.ToLower(hotspots[i].Name) < strings.ToLower(hotspots[j].Name)
	})

	c.cache.Set(cacheKey, hotspots, cache.DefaultExpiration)
	logger.Debug("Fetched hotspots",
		"lat", lat,
		"lng", lng,
		"dist_km", distKm,
		"raw_entries", len(payload),
		"hotspots", len(hotspots))
	return hotspots, nil
}

// decodeObservations converts raw feed entries to Observations, applying the
// drop/normalize rules: no species name drops the entry, a bad timestamp
// does not.
func decodeObservations(payload []json.RawMessage) []Observation {
	observations := make([]Observation, 0, len(payload))
	for _, raw := range payload {
		var entry struct {
			ComName string `json:"comName"`
			ObsDt   string `json:"obsDt"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		commonName := strings.TrimSpace(entry.ComName)
		if commonName == "" {
			continue
		}

		rawObsDt := strings.TrimSpace(entry.ObsDt)
		obs := Observation{
			CommonName:    commonName,
			RawObservedAt: rawObsDt,
		}
		if t, hasTime, ok := ParseObservationTime(rawObsDt); ok {
			obs.ObservedAt = &t
			obs.HasTime = hasTime
		}
		observations = append(observations, obs)
	}
	return observations
}

// decodeHotspot parses a single hotspot entry defensively. Missing id/name
// or unusable coordinates drop the entry; failures in optional fields only
// leave those fields absent.
func decodeHotspot(raw json.RawMessage) (Hotspot, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Hotspot{}, false
	}

	id := decodeString(fields["locId"])
	name := decodeString(fields["locName"])
	if id == "" || name == "" {
		return Hotspot{}, false
	}

	lat, latOK := decodeFloat(fields["lat"])
	lng, lngOK := decodeFloat(fields["lng"])
	if !latOK || !lngOK {
		return Hotspot{}, false
	}

	hotspot := Hotspot{
		ID:          id,
		Name:        name,
		Latitude:    lat,
		Longitude:   lng,
		CountryCode: decodeString(fields["countryCode"]),
	}

	if t, _, ok := ParseObservationTime(decodeString(fields["latestObsDt"])); ok {
		hotspot.LatestObservation = &t
	}
	if n, ok := decodeInt(fields["numSpeciesAllTime"]); ok {
		hotspot.SpeciesAllTime = &n
	}
	if n, ok := decodeInt(fields["numChecklistsAllTime"]); ok {
		hotspot.ChecklistsAllTime = &n
	}

	return hotspot, true
}

func decodeString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func decodeFloat(raw json.RawMessage) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	// Some feeds quote coordinates.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func decodeInt(raw json.RawMessage) (int, bool) {
	if raw == nil {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	return 0, false
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
