// Package prediction resolves ranked bird species predictions for a zone,
// month and hour bucket. It tries configured rule levels first, each laxer
// than the previous, and falls back to live observation data when no rules
// match. Resolution degrades to an empty result but never fails.
package prediction

import (
	"context"

	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/ebird"
)

// Confidence expresses how directly a prediction matched the request.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Prediction is one ranked species row in a resolution result.
// ObservationsCount and LastSeenDaysAgo are only set for rows derived from
// live observations; rule-derived rows leave them nil.
type Prediction struct {
	Species           string     `json:"species"`
	Score             int        `json:"score"`
	Reason            string     `json:"reason"`
	Confidence        Confidence `json:"confidence"`
	FallbackUsed      bool       `json:"fallback_used"`
	ObservationsCount *int       `json:"observations_count,omitempty"`
	LastSeenDaysAgo   *int       `json:"last_seen_days_ago,omitempty"`
}

// SpeciesWeight is an aggregated rule row: the summed weight of all rules
// matching a filter combination, grouped by species.
type SpeciesWeight struct {
	Species     string
	TotalWeight int
}

// RuleStore answers aggregated rule queries for the resolver. A nil bucket
// means no hour-bucket filter; an empty months slice means no month filter.
// Rows come back ordered by total weight descending, species ascending.
type RuleStore interface {
	SumWeightsGroupedBySpecies(zone string, months []int, bucket *daypart.Bucket, limit int) ([]SpeciesWeight, error)
}

// ObservationSource supplies recent live observations for the fallback tier.
type ObservationSource interface {
	RecentNearby(ctx context.Context, lat, lng float64, distKm, backDays, maxResults int) ([]ebird.Observation, error)
	RecentByLocation(ctx context.Context, locID string, backDays, maxResults int) ([]ebird.Observation, error)
}
