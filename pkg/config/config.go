package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Dataset   DatasetConfig   `json:"dataset" yaml:"dataset"`
	Playback  PlaybackConfig  `json:"playback" yaml:"playback"`
	Collector CollectorConfig `json:"collector" yaml:"collector"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port" yaml:"port" validate:"required,numeric"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host" yaml:"host"`

	// AllowedOrigins lists CORS origins for the web API
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (postgres, sqlite)
	Driver string `json:"driver" yaml:"driver" validate:"oneof=postgres sqlite"`

	// Host is the database server hostname
	Host string `json:"host" yaml:"host"`

	// Port is the database server port
	Port int `json:"port" yaml:"port" validate:"gte=0,lte=65535"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// Path is the database file for the sqlite driver (":memory:" for in-memory)
	Path string `json:"path" yaml:"path"`

	// Username for database authentication
	Username string `json:"username" yaml:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password" yaml:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
}

// DatasetConfig selects where the replayed flight records come from.
type DatasetConfig struct {
	// Source is "csv" (read Path) or "database" (read the records table)
	Source string `json:"source" yaml:"source" validate:"oneof=csv database"`

	// Path is the cleaned CSV file; .gz and .zst files are decompressed
	Path string `json:"path" yaml:"path" validate:"required_if=Source csv"`

	// MinSamples drops aircraft with fewer samples when loading
	MinSamples int `json:"min_samples" yaml:"min_samples" validate:"gte=0"`
}

// PlaybackConfig contains the render loop and map defaults.
type PlaybackConfig struct {
	// TickIntervalMillis is the wall-clock time between ticks (default: 2000)
	TickIntervalMillis int `json:"tick_interval_millis" yaml:"tick_interval_millis" validate:"gt=0"`

	// TickStepSeconds is the virtual time one tick advances at speed 1 (default: 1)
	TickStepSeconds float64 `json:"tick_step_seconds" yaml:"tick_step_seconds" validate:"gt=0"`

	// DefaultSpeed is the initial speed multiplier (default: 1)
	DefaultSpeed float64 `json:"default_speed" yaml:"default_speed" validate:"gt=0"`

	// MapStyle is the initial map style
	MapStyle string `json:"map_style" yaml:"map_style" validate:"required"`

	// MapStyles are the styles offered by the selectors
	MapStyles []string `json:"map_styles" yaml:"map_styles" validate:"min=1,dive,required"`
}

// TickInterval returns TickIntervalMillis as a duration.
func (p PlaybackConfig) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMillis) * time.Millisecond
}

// TickStep returns TickStepSeconds as a duration.
func (p PlaybackConfig) TickStep() time.Duration {
	return time.Duration(p.TickStepSeconds * float64(time.Second))
}

// CollectorConfig contains the OpenSky sampling settings.
type CollectorConfig struct {
	// BaseURL is the OpenSky REST API root
	BaseURL string `json:"base_url" yaml:"base_url" validate:"required,url"`

	// Username and Password enable authenticated requests (optional)
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// PollIntervalSeconds is the time between polls (default: 30)
	PollIntervalSeconds int `json:"poll_interval_seconds" yaml:"poll_interval_seconds" validate:"gt=0"`

	// SampleSize is the number of state vectors kept per poll (default: 300)
	SampleSize int `json:"sample_size" yaml:"sample_size" validate:"gt=0"`

	// Polls is the number of polls before the run ends; 0 polls until stopped
	Polls int `json:"polls" yaml:"polls" validate:"gte=0"`

	// MinSamples is the cleaning threshold per aircraft (default: 120)
	MinSamples int `json:"min_samples" yaml:"min_samples" validate:"gte=0"`

	// RequestsPerMinute limits API calls; 0 disables limiting
	RequestsPerMinute float64 `json:"requests_per_minute" yaml:"requests_per_minute" validate:"gte=0"`

	// Sink is "csv" (write RawPath/CleanPath) or "database"
	Sink string `json:"sink" yaml:"sink" validate:"oneof=csv database"`

	// RawPath receives every sample as it is collected
	RawPath string `json:"raw_path" yaml:"raw_path" validate:"required_if=Sink csv"`

	// CleanPath receives the cleaned dataset at the end of the run
	CleanPath string `json:"clean_path" yaml:"clean_path" validate:"required_if=Sink csv"`
}

// PollInterval returns PollIntervalSeconds as a duration.
func (c CollectorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load reads configuration from a JSON or YAML file. Values missing from the
// file keep their defaults. If the file doesn't exist, returns a default
// configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the configuration to a JSON or YAML file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "flightmap",
			Path:         "flightmap.db",
			Username:     "flightmap",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Dataset: DatasetConfig{
			Source: "csv",
			Path:   "data/flight_data_clean.csv",
		},
		Playback: PlaybackConfig{
			TickIntervalMillis: 2000,
			TickStepSeconds:    1,
			DefaultSpeed:       1,
			MapStyle:           "open-street-map",
			MapStyles:          []string{"open-street-map", "carto-positron", "carto-darkmatter"},
		},
		Collector: CollectorConfig{
			BaseURL:             "https://opensky-network.org/api",
			PollIntervalSeconds: 30,
			SampleSize:          300,
			Polls:               120,
			MinSamples:          120,
			RequestsPerMinute:   4, // Anonymous OpenSky quota
			Sink:                "csv",
			RawPath:             "data/flight_data.csv",
			CleanPath:           "data/flight_data_clean.csv",
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("FLIGHTMAP_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPassword := os.Getenv("FLIGHTMAP_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if user := os.Getenv("FLIGHTMAP_OPENSKY_USERNAME"); user != "" {
		c.Collector.Username = user
	}
	if pass := os.Getenv("FLIGHTMAP_OPENSKY_PASSWORD"); pass != "" {
		c.Collector.Password = pass
	}
	if path := os.Getenv("FLIGHTMAP_DATASET"); path != "" {
		c.Dataset.Source = "csv"
		c.Dataset.Path = path
	}
}
