package datastore

import (
	"gorm.io/gorm"

	"github.com/wingman2025/birdtarifa/internal/errors"
)

// performAutoMigration keeps the schema current for both entities.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Sighting{}, &PredictionRule{}); err != nil {
		return errors.Newf("migrating %s database: %v", dbType, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}
	if debug {
		datastoreLogger.Debug("database migration completed", "db_type", dbType, "connection", connectionInfo)
	}
	return nil
}
