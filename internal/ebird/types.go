// Package ebird provides a client for the eBird API v2 observation and
// hotspot feeds.
package ebird

import "time"

// Observation is a single species observation from a recent-observations feed.
// ObservedAt is nil when the feed timestamp could not be parsed; HasTime is
// true only when the timestamp carried a clock time, not just a date.
type Observation struct {
	CommonName    string     `json:"common_name"`
	ObservedAt    *time.Time `json:"observed_at,omitempty"`
	HasTime       bool       `json:"observed_has_time"`
	RawObservedAt string     `json:"raw_observed_at"`
}

// Hotspot is a named point of interest for observations, returned ordered by
// distance from the query point.
type Hotspot struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Latitude          float64    `json:"lat"`
	Longitude         float64    `json:"lng"`
	CountryCode       string     `json:"country_code,omitempty"`
	LatestObservation *time.Time `json:"latest_observation,omitempty"`
	SpeciesAllTime    *int       `json:"num_species_all_time,omitempty"`
	ChecklistsAllTime *int       `json:"num_checklists_all_time,omitempty"`
	DistanceKm        float64    `json:"distance_km"`
}

// Config holds configuration for the eBird client
type Config struct {
	APIKey   string        `json:"api_key"`
	BaseURL  string        `json:"base_url"`
	Timeout  time.Duration `json:"timeout"`
	CacheTTL time.Duration `json:"cache_ttl"` // hotspot reference data only
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.ebird.org/v2",
		Timeout:  12 * time.Second,
		CacheTTL: 10 * time.Minute,
	}
}

// Error represents an eBird API error response
type Error struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
