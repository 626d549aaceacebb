package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig struct {
		HTTP struct {
			ListenAddr string `yaml:"listen_addr"`
			Port       int    `yaml:"port"`
		} `yaml:"http"`
		Database struct {
			ConnectionString string `yaml:"connection_string"`
			AutoMigrate      bool   `yaml:"auto_migrate"`
		} `yaml:"database"`
		Weather struct {
			QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
		} `yaml:"weather"`
	}

	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	config := &ConfigData{
		HTTP: HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
			Port:       yamlConfig.HTTP.Port,
		},
		Database: DatabaseData{
			ConnectionString: yamlConfig.Database.ConnectionString,
			AutoMigrate:      yamlConfig.Database.AutoMigrate,
		},
		Weather: WeatherData{
			QueryTimeoutSeconds: yamlConfig.Weather.QueryTimeoutSeconds,
		},
	}

	if config.Database.ConnectionString == "" {
		return nil, fmt.Errorf("database.connection_string is required")
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true; YAML files are not editable at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
