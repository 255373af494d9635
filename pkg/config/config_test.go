package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	// Database defaults
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}

	// Playback defaults
	if cfg.Playback.TickInterval() != 2*time.Second {
		t.Errorf("Expected 2s tick interval, got %v", cfg.Playback.TickInterval())
	}
	if cfg.Playback.TickStep() != time.Second {
		t.Errorf("Expected 1s tick step, got %v", cfg.Playback.TickStep())
	}
	if cfg.Playback.DefaultSpeed != 1 {
		t.Errorf("Expected default speed 1, got %f", cfg.Playback.DefaultSpeed)
	}
	if len(cfg.Playback.MapStyles) != 3 {
		t.Errorf("Expected 3 map styles, got %d", len(cfg.Playback.MapStyles))
	}

	// Collector defaults
	if cfg.Collector.PollInterval() != 30*time.Second {
		t.Errorf("Expected 30s poll interval, got %v", cfg.Collector.PollInterval())
	}
	if cfg.Collector.SampleSize != 300 {
		t.Errorf("Expected sample size 300, got %d", cfg.Collector.SampleSize)
	}
	if cfg.Collector.Polls != 120 || cfg.Collector.MinSamples != 120 {
		t.Errorf("Expected 120 polls and 120 min samples, got %d/%d", cfg.Collector.Polls, cfg.Collector.MinSamples)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Server.Port != "8080" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadValidConfig tests loading JSON and YAML files.
func TestLoadValidConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "JSON",
			file: "config.json",
			content: `{
  "server": {"port": "9090"},
  "database": {"driver": "sqlite", "path": "/tmp/flights.db"},
  "playback": {"tick_interval_millis": 500, "default_speed": 4}
}`,
		},
		{
			name: "YAML",
			file: "config.yaml",
			content: `server:
  port: "9090"
database:
  driver: sqlite
  path: /tmp/flights.db
playback:
  tick_interval_millis: 500
  default_speed: 4
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			cfg, err := Load(configPath)
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}

			if cfg.Server.Port != "9090" {
				t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
			}
			if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/flights.db" {
				t.Errorf("Expected sqlite at /tmp/flights.db, got %s at %s", cfg.Database.Driver, cfg.Database.Path)
			}
			if cfg.Playback.TickInterval() != 500*time.Millisecond {
				t.Errorf("Expected 500ms tick, got %v", cfg.Playback.TickInterval())
			}
			if cfg.Playback.DefaultSpeed != 4 {
				t.Errorf("Expected speed 4, got %f", cfg.Playback.DefaultSpeed)
			}
			// Unset values keep their defaults
			if cfg.Collector.SampleSize != 300 {
				t.Errorf("Expected default sample size 300, got %d", cfg.Collector.SampleSize)
			}
		})
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestLoadRejectsInvalidValues tests validation after loading.
func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Unknown driver", `{"database": {"driver": "mysql"}}`},
		{"Zero tick interval", `{"playback": {"tick_interval_millis": 0}}`},
		{"Negative speed", `{"playback": {"default_speed": -1}}`},
		{"Unknown sink", `{"collector": {"sink": "kafka"}}`},
		{"CSV source without path", `{"dataset": {"source": "csv", "path": ""}}`},
		{"Bad base URL", `{"collector": {"base_url": "not a url"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			_, err := Load(configPath)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), "invalid config") {
				t.Errorf("Expected validation error, got: %v", err)
			}
		})
	}
}

// TestSaveConfig tests saving configuration in both formats.
func TestSaveConfig(t *testing.T) {
	for _, file := range []string{"nested/dir/saved.json", "nested/dir/saved.yml"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), file)

			cfg := DefaultConfig()
			cfg.Server.Port = "9999"
			cfg.Playback.MapStyle = "carto-positron"

			if err := cfg.Save(configPath); err != nil {
				t.Fatalf("Failed to save config: %v", err)
			}

			loaded, err := Load(configPath)
			if err != nil {
				t.Fatalf("Failed to load saved config: %v", err)
			}
			if loaded.Server.Port != "9999" {
				t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
			}
			if loaded.Playback.MapStyle != "carto-positron" {
				t.Errorf("Expected carto-positron, got %s", loaded.Playback.MapStyle)
			}
		})
	}
}

// TestEnvironmentOverrides tests that environment variables override config values.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FLIGHTMAP_PORT", "7777")
	t.Setenv("FLIGHTMAP_DB_PASSWORD", "env-password")
	t.Setenv("FLIGHTMAP_OPENSKY_USERNAME", "env-user")
	t.Setenv("FLIGHTMAP_OPENSKY_PASSWORD", "env-pass")
	t.Setenv("FLIGHTMAP_DATASET", "/data/flights.csv.gz")

	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte(`{"server": {"port": "9090"}, "dataset": {"source": "database"}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "7777" {
		t.Errorf("Expected port override 7777, got %s", cfg.Server.Port)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected password override, got %s", cfg.Database.Password)
	}
	if cfg.Collector.Username != "env-user" || cfg.Collector.Password != "env-pass" {
		t.Errorf("Expected OpenSky credentials override, got %s/%s", cfg.Collector.Username, cfg.Collector.Password)
	}
	if cfg.Dataset.Source != "csv" || cfg.Dataset.Path != "/data/flights.csv.gz" {
		t.Errorf("Expected csv dataset override, got %s %s", cfg.Dataset.Source, cfg.Dataset.Path)
	}
}
