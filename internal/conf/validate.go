package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for obviously broken values.
// A missing eBird API key is not an error here: the resolver degrades to
// rules-only operation without it.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Server.Port == "" {
		errs = append(errs, errors.New("server port must not be empty"))
	}

	if settings.Database.SQLite.Enabled && settings.Database.MySQL.Enabled {
		errs = append(errs, errors.New("only one database backend may be enabled"))
	}
	if !settings.Database.SQLite.Enabled && !settings.Database.MySQL.Enabled {
		errs = append(errs, errors.New("a database backend must be enabled"))
	}
	if settings.Database.SQLite.Enabled && settings.Database.SQLite.Path == "" {
		errs = append(errs, errors.New("sqlite path must not be empty"))
	}

	geo := settings.EBird.Geo
	if geo.Latitude < -90 || geo.Latitude > 90 {
		errs = append(errs, fmt.Errorf("ebird geo latitude out of range: %f", geo.Latitude))
	}
	if geo.Longitude < -180 || geo.Longitude > 180 {
		errs = append(errs, fmt.Errorf("ebird geo longitude out of range: %f", geo.Longitude))
	}
	if geo.BackDays < 1 || geo.BackDays > 30 {
		errs = append(errs, fmt.Errorf("ebird geo backdays must be 1-30, got %d", geo.BackDays))
	}
	if settings.EBird.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ebird timeout must be positive, got %d", settings.EBird.Timeout))
	}

	if len(settings.Wiki.Languages) == 0 {
		errs = append(errs, errors.New("at least one wiki language is required"))
	}

	if settings.Media.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("media max upload must be positive, got %d", settings.Media.MaxUploadMB))
	}

	return errors.Join(errs...)
}
