package prediction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/ebird"
	"github.com/wingman2025/birdtarifa/internal/logging"
	"github.com/wingman2025/birdtarifa/internal/observability"
)

// resolutionPath names which tier produced a resolution result. Exposed to
// metrics so operators can see how often the rule base answers directly.
type resolutionPath string

const (
	pathRuleExact     resolutionPath = "rule_exact"
	pathRuleMonth     resolutionPath = "rule_month"
	pathRuleNeighbor  resolutionPath = "rule_neighbor"
	pathRuleZone      resolutionPath = "rule_zone"
	pathExternal      resolutionPath = "external"
	pathExternalError resolutionPath = "external_error"
	pathEmpty         resolutionPath = "empty"
)

// ruleLevel is one tier of the rule cascade. Levels run in order and the
// first one returning rows wins, so an exact match always beats a relaxed one.
type ruleLevel struct {
	path         resolutionPath
	months       func(month int) []int
	filterBucket bool
	confidence   Confidence
	fallbackUsed bool
	reason       func(zone string, month int, bucket daypart.Bucket) string
}

var ruleLevels = []ruleLevel{
	{
		path:         pathRuleExact,
		months:       func(month int) []int { return []int{month} },
		filterBucket: true,
		confidence:   ConfidenceHigh,
		fallbackUsed: false,
		reason: func(zone string, month int, bucket daypart.Bucket) string {
			return fmt.Sprintf("reglas: %s, mes %d, %s", zone, month, bucket)
		},
	},
	{
		path:         pathRuleMonth,
		months:       func(month int) []int { return []int{month} },
		filterBucket: false,
		confidence:   ConfidenceMedium,
		fallbackUsed: true,
		reason: func(zone string, month int, bucket daypart.Bucket) string {
			return fmt.Sprintf("reglas (fallback): %s, mes %d, franja relajada", zone, month)
		},
	},
	{
		path:         pathRuleNeighbor,
		months:       neighborMonths,
		filterBucket: true,
		confidence:   ConfidenceLow,
		fallbackUsed: true,
		reason: func(zone string, month int, bucket daypart.Bucket) string {
			return fmt.Sprintf("reglas (fallback): %s, mes cercano, %s", zone, bucket)
		},
	},
	{
		path:         pathRuleZone,
		months:       func(month int) []int { return nil },
		filterBucket: false,
		confidence:   ConfidenceLow,
		fallbackUsed: true,
		reason: func(zone string, month int, bucket daypart.Bucket) string {
			return fmt.Sprintf("reglas (fallback): %s, mostrando base general", zone)
		},
	},
}

// neighborMonths returns the calendar neighbors of a month, wrapping the year
// boundary (1 -> 12 and 12 -> 1).
func neighborMonths(month int) []int {
	prev := month - 1
	if prev < 1 {
		prev = 12
	}
	next := month + 1
	if next > 12 {
		next = 1
	}
	return []int{prev, next}
}

// GeoDefaults is the configured fallback point for the external tier when a
// request does not name a specific location.
type GeoDefaults struct {
	Latitude   float64
	Longitude  float64
	DistanceKm int
	BackDays   int
	MaxResults int
}

// Request carries one resolution query. LocationID optionally scopes the
// external fallback to a single hotspot instead of the default point.
type Request struct {
	Zone       string
	LocationID string
	Month      int
	Bucket     daypart.Bucket
	Limit      int
}

// Resolver runs the tiered prediction cascade. A nil source disables the
// external fallback entirely, matching an unconfigured credential.
type Resolver struct {
	store   RuleStore
	source  ObservationSource
	geo     GeoDefaults
	metrics *observability.Metrics
	logger  *slog.Logger
}

var (
	serviceLogger *slog.Logger
	closeLogger   func() error
)

func init() {
	var err error
	serviceLogger, closeLogger, err = logging.NewFileLogger("logs/prediction.log", "prediction", slog.LevelInfo)
	if err != nil || serviceLogger == nil {
		serviceLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// CloseLogger releases the package log file. Call during shutdown.
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}

func NewResolver(store RuleStore, source ObservationSource, geo GeoDefaults, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		store:   store,
		source:  source,
		geo:     geo,
		metrics: metrics,
		logger:  serviceLogger,
	}
}

// Resolve runs the cascade for one request. It never returns an error:
// rule-store failures skip to the next tier and external failures collapse to
// an empty result.
func (r *Resolver) Resolve(ctx context.Context, req Request) []Prediction {
	start := time.Now()
	rows, path := r.resolve(ctx, req)
	r.metrics.CountResolutionPath(string(path))
	r.logger.Info("resolved predictions",
		"zone", req.Zone,
		"month", req.Month,
		"bucket", string(req.Bucket),
		"path", string(path),
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds())
	if rows == nil {
		rows = []Prediction{}
	}
	return rows
}

func (r *Resolver) resolve(ctx context.Context, req Request) ([]Prediction, resolutionPath) {
	for _, level := range ruleLevels {
		var bucket *daypart.Bucket
		if level.filterBucket {
			b := req.Bucket
			bucket = &b
		}
		rows, err := r.store.SumWeightsGroupedBySpecies(req.Zone, level.months(req.Month), bucket, req.Limit)
		if err != nil {
			r.logger.Warn("rule store query failed, trying next level",
				"zone", req.Zone, "path", string(level.path), "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		reason := level.reason(req.Zone, req.Month, req.Bucket)
		predictions := make([]Prediction, 0, len(rows))
		for _, row := range rows {
			predictions = append(predictions, Prediction{
				Species:      row.Species,
				Score:        row.TotalWeight,
				Reason:       reason,
				Confidence:   level.confidence,
				FallbackUsed: level.fallbackUsed,
			})
		}
		return predictions, level.path
	}

	if r.source == nil {
		return nil, pathEmpty
	}
	return r.resolveExternal(ctx, req)
}

func (r *Resolver) resolveExternal(ctx context.Context, req Request) ([]Prediction, resolutionPath) {
	var (
		observations []ebird.Observation
		err          error
		scope        string
	)
	if req.LocationID != "" {
		scope = fmt.Sprintf("hotspot %s", req.LocationID)
		observations, err = r.source.RecentByLocation(ctx, req.LocationID, r.geo.BackDays, r.geo.MaxResults)
	} else {
		scope = "zona cercana"
		observations, err = r.source.RecentNearby(ctx, r.geo.Latitude, r.geo.Longitude, r.geo.DistanceKm, r.geo.BackDays, r.geo.MaxResults)
	}
	if err != nil {
		r.logger.Warn("external observation fetch failed, returning empty result",
			"zone", req.Zone, "location_id", req.LocationID, "error", err)
		return nil, pathExternalError
	}
	rows := ObservationsToPredictions(observations, req.Month, req.Bucket, r.geo.BackDays, req.Limit, scope)
	return rows, pathExternal
}
