package models

import "time"

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Version   string           `yaml:"version"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	Debug     bool             `yaml:"debug"`
	Engine    MEngineConfig    `yaml:"engine"`
	Client    MClientConfig    `yaml:"client"`
	Driver    MDriverConfig    `yaml:"driver"`
	History   MHistoryConfig   `yaml:"history"`
	Storage   MStorageConfig   `yaml:"storage"`
	Structure MStructureConfig `yaml:"structure"`
}

type MEngineConfig struct {
	DefaultSeed     int64 `yaml:"default_seed"`
	BacklogCapacity int   `yaml:"backlog_capacity"`
	MaxStepsPerCall int   `yaml:"max_steps_per_call"`
}

type MClientConfig struct {
	ServerURL           string `yaml:"server_url"`
	ReconnectAttempts   int    `yaml:"reconnect_attempts"`
	ReconnectIntervalMs int    `yaml:"reconnect_interval_ms"`
	ErrorTTLMs          int    `yaml:"error_ttl_ms"`
	RequestTimeoutMs    int    `yaml:"request_timeout_ms"`
}

type MDriverConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

type MHistoryConfig struct {
	WindowSize int `yaml:"window_size"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	MaxRuns            int    `yaml:"max_runs"`
}

type MStructureConfig struct {
	ModelPath string `yaml:"model_path"`
}

// -----------------------------------------------------------------------------
// Duration views over the millisecond fields
// -----------------------------------------------------------------------------

func (c MClientConfig) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectIntervalMs) * time.Millisecond
}

func (c MClientConfig) ErrorTTL() time.Duration {
	return time.Duration(c.ErrorTTLMs) * time.Millisecond
}

func (c MClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c MDriverConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}
