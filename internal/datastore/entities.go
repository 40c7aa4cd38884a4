package datastore

import "time"

// Sighting is one user-reported observation, optionally with a photo.
type Sighting struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	ObservedAt   time.Time `gorm:"not null" json:"observed_at"`
	Zone         string    `gorm:"size:120;index;not null" json:"zone"`
	SpeciesGuess string    `gorm:"size:120" json:"species_guess,omitempty"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	PhotoURL     string    `gorm:"size:1024" json:"photo_url,omitempty"`
}

func (Sighting) TableName() string {
	return "sightings"
}

// PredictionRule is one curated weighted rule. A (zone, month, hour_bucket,
// species) tuple is unique; writes violating that must be rejected before
// insert so the API can answer with a conflict.
type PredictionRule struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	Zone       string    `gorm:"size:120;not null;uniqueIndex:uq_prediction_rule_scope;index:ix_prediction_rule_lookup" json:"zone"`
	Month      int       `gorm:"not null;uniqueIndex:uq_prediction_rule_scope;index:ix_prediction_rule_lookup" json:"month"`
	HourBucket string    `gorm:"size:24;not null;uniqueIndex:uq_prediction_rule_scope;index:ix_prediction_rule_lookup" json:"hour_bucket"`
	Species    string    `gorm:"size:120;not null;uniqueIndex:uq_prediction_rule_scope" json:"species"`
	Weight     int       `gorm:"not null;default:1" json:"weight"`
}

func (PredictionRule) TableName() string {
	return "prediction_rules"
}
