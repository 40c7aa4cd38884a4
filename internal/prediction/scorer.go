package prediction

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/ebird"
)

// scorerPass is one relaxation step of the observation scorer. Passes run in
// order and the first one that keeps at least one observation wins.
type scorerPass struct {
	matchMonth   bool
	matchBucket  bool
	confidence   Confidence
	fallbackUsed bool
	reasonFormat string
}

var scorerPasses = []scorerPass{
	{matchMonth: true, matchBucket: true, confidence: ConfidenceMedium, fallbackUsed: false, reasonFormat: "eBird: %s, filtros exactos"},
	{matchMonth: false, matchBucket: true, confidence: ConfidenceLow, fallbackUsed: true, reasonFormat: "eBird: %s, mes relajado"},
	{matchMonth: false, matchBucket: false, confidence: ConfidenceLow, fallbackUsed: true, reasonFormat: "eBird: %s, filtros relajados"},
}

type speciesTally struct {
	species  string
	score    int
	count    int
	lastSeen *time.Time
}

// ObservationsToPredictions ranks raw observations into scored species rows.
// Observations without a date match any month, score a flat 1 and sort after
// dated species in the recency tie-break. The result is never an error: with
// no observations it is an empty list.
func ObservationsToPredictions(observations []ebird.Observation, requestedMonth int, requestedBucket daypart.Bucket, backDays, limit int, scope string) []Prediction {
	nowDate := truncateToDate(clock.Now().UTC())

	matchesMonth := func(obs ebird.Observation) bool {
		if obs.ObservedAt == nil {
			return true
		}
		return int(obs.ObservedAt.Month()) == requestedMonth
	}
	matchesBucket := func(obs ebird.Observation) bool {
		if obs.ObservedAt == nil || !obs.HasTime {
			return true
		}
		return daypart.ForHour(obs.ObservedAt.Hour()) == requestedBucket
	}

	var filtered []ebird.Observation
	pass := scorerPasses[len(scorerPasses)-1]
	for _, candidate := range scorerPasses {
		filtered = filtered[:0]
		for _, obs := range observations {
			if candidate.matchMonth && !matchesMonth(obs) {
				continue
			}
			if candidate.matchBucket && !matchesBucket(obs) {
				continue
			}
			filtered = append(filtered, obs)
		}
		if len(filtered) > 0 {
			pass = candidate
			break
		}
	}

	tallies := make(map[string]*speciesTally)
	for _, obs := range filtered {
		name := strings.TrimSpace(obs.CommonName)
		if name == "" {
			continue
		}
		tally, ok := tallies[name]
		if !ok {
			tally = &speciesTally{species: name}
			tallies[name] = tally
		}
		tally.score += scoreObservation(obs, nowDate, backDays)
		tally.count++
		if obs.ObservedAt != nil {
			observed := truncateToDate(obs.ObservedAt.UTC())
			if tally.lastSeen == nil || observed.After(*tally.lastSeen) {
				tally.lastSeen = &observed
			}
		}
	}

	ranked := make([]*speciesTally, 0, len(tallies))
	for _, tally := range tallies {
		ranked = append(ranked, tally)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.count != b.count {
			return a.count > b.count
		}
		if !equalDates(a.lastSeen, b.lastSeen) {
			return moreRecent(a.lastSeen, b.lastSeen)
		}
		la, lb := strings.ToLower(a.species), strings.ToLower(b.species)
		if la != lb {
			return la < lb
		}
		return a.species < b.species
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	reason := fmt.Sprintf(pass.reasonFormat, scope)
	rows := make([]Prediction, 0, len(ranked))
	for _, tally := range ranked {
		count := tally.count
		row := Prediction{
			Species:           tally.species,
			Score:             tally.score,
			Reason:            reason,
			Confidence:        pass.confidence,
			FallbackUsed:      pass.fallbackUsed,
			ObservationsCount: &count,
		}
		if tally.lastSeen != nil {
			daysAgo := daysBetween(*tally.lastSeen, nowDate)
			if daysAgo < 0 {
				daysAgo = 0
			}
			row.LastSeenDaysAgo = &daysAgo
		}
		rows = append(rows, row)
	}
	return rows
}

func scoreObservation(obs ebird.Observation, nowDate time.Time, backDays int) int {
	if obs.ObservedAt == nil {
		return 1
	}
	daysSince := daysBetween(truncateToDate(obs.ObservedAt.UTC()), nowDate)
	if daysSince < 0 {
		daysSince = 0
	}
	score := backDays - daysSince
	if score < 1 {
		return 1
	}
	return score
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// moreRecent orders known dates descending with nil (never dated) last.
func moreRecent(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
