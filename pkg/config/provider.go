// Package config provides configuration loading for the GDD service from
// YAML files or SQLite databases.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	HTTP     HTTPData     `json:"http"`
	Database DatabaseData `json:"database"`
	Weather  WeatherData  `json:"weather,omitempty"`
}

// HTTPData holds the REST server listener configuration
type HTTPData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// DatabaseData holds the Postgres connection configuration
type DatabaseData struct {
	ConnectionString string `json:"connection_string"`
	AutoMigrate      bool   `json:"auto_migrate,omitempty"`
}

// WeatherData holds settings for the external weather data dependency
type WeatherData struct {
	QueryTimeoutSeconds int `json:"query_timeout_seconds,omitempty"`
}
