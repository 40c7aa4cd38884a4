package conf

import "github.com/spf13/viper"

// setDefaultConfig sets the default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Bird Tarifa API")
	viper.SetDefault("main.env", "development")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.corsorigins", []string{"*"})

	viper.SetDefault("database.sqlite.enabled", true)
	viper.SetDefault("database.sqlite.path", "birdtarifa.db")
	viper.SetDefault("database.mysql.enabled", false)
	viper.SetDefault("database.mysql.username", "birdtarifa")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "birdtarifa")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("ebird.apikey", "")
	viper.SetDefault("ebird.baseurl", "https://api.ebird.org/v2")
	viper.SetDefault("ebird.timeout", 12)
	// Tarifa, at the Strait of Gibraltar
	viper.SetDefault("ebird.geo.latitude", 36.0128)
	viper.SetDefault("ebird.geo.longitude", -5.6012)
	viper.SetDefault("ebird.geo.distancekm", 25)
	viper.SetDefault("ebird.geo.backdays", 30)
	viper.SetDefault("ebird.geo.maxresults", 200)

	viper.SetDefault("wiki.languages", []string{"es", "en"})
	viper.SetDefault("wiki.contact", "https://github.com/wingman2025/birdtarifa")

	viper.SetDefault("media.storagepath", "media")
	viper.SetDefault("media.publicbaseurl", "")
	viper.SetDefault("media.maxuploadmb", 8)
}
