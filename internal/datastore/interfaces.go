// Package datastore persists sightings and curated prediction rules behind a
// small interface with SQLite and MySQL implementations.
package datastore

import (
	"strings"

	"gorm.io/gorm"

	"github.com/wingman2025/birdtarifa/internal/conf"
	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/errors"
	"github.com/wingman2025/birdtarifa/internal/prediction"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error
	CreateSighting(sighting *Sighting) error
	ListSightings(limit int) ([]Sighting, error)
	CreatePredictionRule(rule *PredictionRule) error
	SeedPredictionRules() (int, error)
	DistinctZones() ([]string, error)
	SumWeightsGroupedBySpecies(zone string, months []int, bucket *daypart.Bucket, limit int) ([]prediction.SpeciesWeight, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New picks the store implementation from settings. Returns nil when no
// database output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// CreateSighting inserts a sighting, trimming text fields first.
func (ds *DataStore) CreateSighting(sighting *Sighting) error {
	sighting.Zone = strings.TrimSpace(sighting.Zone)
	sighting.SpeciesGuess = strings.TrimSpace(sighting.SpeciesGuess)
	sighting.Notes = strings.TrimSpace(sighting.Notes)
	sighting.PhotoURL = strings.TrimSpace(sighting.PhotoURL)

	if err := ds.DB.Create(sighting).Error; err != nil {
		return errors.Newf("saving sighting: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("zone", sighting.Zone).
			Build()
	}
	return nil
}

// ListSightings returns the most recently observed sightings first.
func (ds *DataStore) ListSightings(limit int) ([]Sighting, error) {
	var sightings []Sighting
	err := ds.DB.Order("observed_at DESC").Limit(limit).Find(&sightings).Error
	if err != nil {
		return nil, errors.Newf("listing sightings: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return sightings, nil
}

// CreatePredictionRule inserts a rule after checking the scope tuple is free.
// A duplicate (zone, month, hour_bucket, species) yields a conflict error.
func (ds *DataStore) CreatePredictionRule(rule *PredictionRule) error {
	rule.Zone = strings.TrimSpace(rule.Zone)
	rule.Species = strings.TrimSpace(rule.Species)

	var count int64
	err := ds.DB.Model(&PredictionRule{}).
		Where("zone = ? AND month = ? AND hour_bucket = ? AND species = ?",
			rule.Zone, rule.Month, rule.HourBucket, rule.Species).
		Count(&count).Error
	if err != nil {
		return errors.Newf("checking rule scope: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if count > 0 {
		return errors.Newf("prediction rule already exists for that scope").
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("zone", rule.Zone).
			Context("month", rule.Month).
			Context("hour_bucket", rule.HourBucket).
			Context("species", rule.Species).
			Build()
	}

	if err := ds.DB.Create(rule).Error; err != nil {
		return errors.Newf("saving prediction rule: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// DistinctZones lists every zone that has at least one rule, sorted.
func (ds *DataStore) DistinctZones() ([]string, error) {
	var zones []string
	err := ds.DB.Model(&PredictionRule{}).
		Distinct("zone").
		Order("zone ASC").
		Pluck("zone", &zones).Error
	if err != nil {
		return nil, errors.Newf("listing rule zones: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return zones, nil
}

// SumWeightsGroupedBySpecies aggregates rule weights for the resolver. An
// empty months slice skips the month filter and a nil bucket skips the hour
// filter. Rows come back ordered by total weight descending then species.
func (ds *DataStore) SumWeightsGroupedBySpecies(zone string, months []int, bucket *daypart.Bucket, limit int) ([]prediction.SpeciesWeight, error) {
	query := ds.DB.Model(&PredictionRule{}).
		Select("species, SUM(weight) AS total_weight").
		Where("zone = ?", zone)
	if len(months) == 1 {
		query = query.Where("month = ?", months[0])
	} else if len(months) > 1 {
		query = query.Where("month IN ?", months)
	}
	if bucket != nil {
		query = query.Where("hour_bucket = ?", string(*bucket))
	}

	var rows []prediction.SpeciesWeight
	err := query.Group("species").
		Order("SUM(weight) DESC, species ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Newf("aggregating rule weights: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("zone", zone).
			Build()
	}
	return rows, nil
}
