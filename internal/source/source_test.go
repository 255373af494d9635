package source

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/pkg/config"
	"github.com/unklstewy/flightmap/pkg/dataset"
)

func records(id string, n int) []dataset.FlightRecord {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]dataset.FlightRecord, n)
	for i := range out {
		out[i] = dataset.FlightRecord{
			EntityID:  id,
			Callsign:  "CS" + id,
			Latitude:  35 + float64(i)/10,
			Longitude: -80,
			Altitude:  1000,
			Velocity:  200,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		minSamples int
		wantLen    int
		wantIDs    int
	}{
		{"plain", "data.csv", 0, 5, 2},
		{"gzip", "data.csv.gz", 0, 5, 2},
		{"min samples", "data.csv.zst", 3, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			recs := append(records("a", 3), records("b", 2)...)
			require.NoError(t, dataset.WriteFile(path, recs))

			cfg := config.DefaultConfig()
			cfg.Dataset.Path = path
			cfg.Dataset.MinSamples = tt.minSamples

			ds, err := Load(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, ds.Len())
			assert.Equal(t, tt.wantIDs, ds.EntityCount())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")

	_, err := Load(context.Background(), cfg)
	assert.Error(t, err)
}

func TestLoadDatabaseUnavailable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dataset.Source = "database"
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "no", "such", "dir", "db.sqlite")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Load(ctx, cfg)
	assert.Error(t, err)
}

func TestLoadDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Dataset.Source = "database"
	cfg.Dataset.MinSamples = 3
	cfg.Database.Driver = db.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "flights.db")

	database, err := db.Connect(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.InitSchema(ctx))
	repo := db.NewRecordRepository(database)
	runID, err := repo.StartRun(ctx)
	require.NoError(t, err)

	var samples []dataset.Sample
	for _, r := range append(records("a", 4), records("b", 2)...) {
		samples = append(samples, dataset.Sample{FlightRecord: r})
	}
	require.NoError(t, repo.InsertSamples(ctx, runID, samples))
	require.NoError(t, database.Close())

	ds, err := Load(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 1, ds.EntityCount())
}
