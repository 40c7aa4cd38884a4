// Package conf loads and provides access to the application settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// ServerSettings contains settings for the HTTP server.
type ServerSettings struct {
	Port        string   // HTTP port to listen on
	CORSOrigins []string // allowed CORS origins, "*" for any
}

// SQLiteSettings contains settings for the SQLite database backend.
type SQLiteSettings struct {
	Enabled bool   // true to store data in SQLite
	Path    string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL database backend.
type MySQLSettings struct {
	Enabled  bool   // true to store data in MySQL
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// DatabaseSettings selects and configures the persistence backend.
type DatabaseSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// EBirdGeoSettings is the default geographic query point for the live
// observation fallback.
type EBirdGeoSettings struct {
	Latitude   float64 // latitude of the default query point
	Longitude  float64 // longitude of the default query point
	DistanceKm int     // search radius in kilometers
	BackDays   int     // how many days back to look for observations
	MaxResults int     // maximum observations to fetch per request
}

// EBirdSettings contains settings for the eBird API integration.
type EBirdSettings struct {
	APIKey  string // eBird API key, required for the live fallback
	BaseURL string // eBird API base URL
	Timeout int    // per-request timeout in seconds
	Geo     EBirdGeoSettings
}

// WikiSettings contains settings for the Wikipedia enrichment lookup.
type WikiSettings struct {
	Languages []string // language editions in priority order, e.g. ["es", "en"]
	Contact   string   // contact URL or email for the User-Agent header
}

// MediaSettings contains settings for sighting photo storage.
type MediaSettings struct {
	StoragePath   string // directory for uploaded photos
	PublicBaseURL string // base URL photos are served from
	MaxUploadMB   int    // maximum photo upload size in megabytes
}

// MainSettings contains application-wide settings.
type MainSettings struct {
	Name string // application name, used in logs and the root endpoint
	Env  string // deployment environment label, e.g. "development"
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug    bool // true to enable debug logging across services
	Main     MainSettings
	Server   ServerSettings
	Database DatabaseSettings
	EBird    EBirdSettings
	Wiki     WikiSettings
	Media    MediaSettings

	// Version is the application version, set at build time.
	Version string `yaml:"-"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Setting returns the shared Settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		settings, err := Load()
		if err != nil {
			log.Fatalf("error loading settings: %v", err)
		}
		settingsMutex.Lock()
		settingsInstance = settings
		settingsMutex.Unlock()
	})
	return GetSettings()
}

// GetSettings returns the shared settings instance without triggering a load.
// Returns nil before Setting() or Load() has run.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetTestSettings replaces the shared settings instance. Intended for tests.
func SetTestSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// Load reads the configuration file and environment into a Settings struct.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("birdtarifa")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and environment apply.
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "birdtarifa"))
	}
	paths = append(paths, "/etc/birdtarifa")

	return paths, nil
}
