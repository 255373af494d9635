// Package source loads the replayed dataset from the configured backend.
package source

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/pkg/config"
	"github.com/unklstewy/flightmap/pkg/dataset"
)

// Load reads the dataset named by cfg.Dataset. CSV files are cleaned on read;
// database records are already cleaned by the collector, but MinSamples is
// applied to both.
func Load(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	var samples []dataset.Sample

	switch cfg.Dataset.Source {
	case "database":
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 3, time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		records, err := db.NewRecordRepository(database).LoadRecords(ctx)
		if err != nil {
			return nil, err
		}
		samples = make([]dataset.Sample, len(records))
		for i, r := range records {
			samples[i] = dataset.Sample{FlightRecord: r}
		}
	default:
		rc, err := dataset.Open(cfg.Dataset.Path)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		samples, err = dataset.ReadSamples(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cfg.Dataset.Path, err)
		}
	}

	ds := dataset.NewDataset(dataset.Clean(samples, cfg.Dataset.MinSamples))
	start, end := ds.Bounds()
	log.Printf("✓ Loaded %d records for %d aircraft (%s to %s)",
		ds.Len(), ds.EntityCount(), start.Format(dataset.TimestampLayout), end.Format(dataset.TimestampLayout))
	return ds, nil
}
