package config

import (
	"fmt"
	"os"

	"bitcoin-abm/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// DefaultConfig returns the fully-populated default configuration used when
// no config file is supplied.
func DefaultConfig() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:    "bitcoin-abm",
		Version: "0.2.0",
		Host:    "127.0.0.1",
		Port:    5000,
		Debug:   false,
		Engine: models.MEngineConfig{
			DefaultSeed:     1337,
			BacklogCapacity: 1000,
			MaxStepsPerCall: 100,
		},
		Client: models.MClientConfig{
			ServerURL:           "http://127.0.0.1:5000",
			ReconnectAttempts:   5,
			ReconnectIntervalMs: 1000,
			ErrorTTLMs:          5000,
			RequestTimeoutMs:    3000,
		},
		Driver: models.MDriverConfig{
			IntervalMs: 150,
		},
		History: models.MHistoryConfig{
			WindowSize: 100,
		},
		Storage: models.MStorageConfig{
			Enabled: false,
			DBType:  "sqlite",
			DBPath:  "runs.db",
			MaxRuns: 50,
		},
		Structure: models.MStructureConfig{
			ModelPath: "assets/bitcoin_structure.json",
		},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal over the defaults so omitted keys keep sane values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config.MConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1 and 65535)", c.Port)
	}

	if c.Engine.BacklogCapacity <= 0 {
		return fmt.Errorf("engine backlog capacity must be greater than 0")
	}
	if c.Engine.MaxStepsPerCall <= 0 {
		return fmt.Errorf("engine max steps per call must be greater than 0")
	}

	if c.Client.ServerURL == "" {
		return fmt.Errorf("client server URL cannot be empty")
	}
	if c.Client.ReconnectAttempts < 0 {
		return fmt.Errorf("client reconnect attempts cannot be negative")
	}
	if c.Client.ReconnectIntervalMs <= 0 {
		return fmt.Errorf("client reconnect interval must be greater than 0")
	}
	if c.Client.ErrorTTLMs <= 0 {
		return fmt.Errorf("client error TTL must be greater than 0")
	}
	if c.Client.RequestTimeoutMs <= 0 {
		return fmt.Errorf("client request timeout must be greater than 0")
	}

	if c.Driver.IntervalMs <= 0 {
		return fmt.Errorf("driver interval must be greater than 0")
	}

	if c.History.WindowSize <= 0 {
		return fmt.Errorf("history window size must be greater than 0")
	}

	if c.Storage.Enabled {
		if c.Storage.DBType == "" {
			return fmt.Errorf("database type cannot be empty")
		}
		if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
		if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
		if c.Storage.MaxRuns <= 0 {
			return fmt.Errorf("max retained runs must be greater than 0")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
