package datastore

import "github.com/wingman2025/birdtarifa/internal/errors"

// seedRules is the demo rule base for the Tarifa area. Seeding is idempotent:
// rules whose scope tuple already exists are skipped.
var seedRules = []PredictionRule{
	{Zone: "Tarifa Centro", Month: 10, HourBucket: "dawn", Species: "Cernicalo vulgar", Weight: 4},
	{Zone: "Tarifa Centro", Month: 10, HourBucket: "morning", Species: "Gorrion comun", Weight: 3},
	{Zone: "Tarifa Centro", Month: 10, HourBucket: "evening", Species: "Estornino negro", Weight: 2},
	{Zone: "Bolonia", Month: 10, HourBucket: "dawn", Species: "Abejaruco europeo", Weight: 5},
	{Zone: "Bolonia", Month: 10, HourBucket: "afternoon", Species: "Milano negro", Weight: 3},
}

// SeedPredictionRules inserts the demo rules and reports how many were new.
func (ds *DataStore) SeedPredictionRules() (int, error) {
	inserted := 0
	for _, rule := range seedRules {
		var count int64
		err := ds.DB.Model(&PredictionRule{}).
			Where("zone = ? AND month = ? AND hour_bucket = ? AND species = ?",
				rule.Zone, rule.Month, rule.HourBucket, rule.Species).
			Count(&count).Error
		if err != nil {
			return inserted, errors.Newf("checking seed rule: %v", err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Build()
		}
		if count > 0 {
			continue
		}
		row := rule
		if err := ds.DB.Create(&row).Error; err != nil {
			return inserted, errors.Newf("inserting seed rule: %v", err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("zone", rule.Zone).
				Context("species", rule.Species).
				Build()
		}
		inserted++
	}
	return inserted, nil
}
