package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/pkg/config"
	"github.com/unklstewy/flightmap/pkg/dataset"
	"github.com/unklstewy/flightmap/pkg/opensky"
)

// StatesSource fetches one snapshot of state vectors.
type StatesSource interface {
	GetStates(ctx context.Context) (*opensky.StatesResponse, error)
}

// Sink stores samples during a run and produces the cleaned dataset at the end.
type Sink interface {
	Write(ctx context.Context, samples []dataset.Sample) error
	Finish(ctx context.Context, minSamples int) (int, error)
	Close() error
}

// Collector polls OpenSky on a fixed interval and stores a bounded sample of
// each response.
type Collector struct {
	source     StatesSource
	sink       Sink
	interval   time.Duration
	sampleSize int
	polls      int
	minSamples int
	retry      opensky.RetryConfig

	// Statistics
	totalPolls   int
	failedPolls  int
	totalSamples int
	missing      int
	aircraft     map[string]struct{}
}

// Run polls until the configured number of polls is reached or ctx is
// cancelled, then runs the cleaning pass. A cancelled run is still cleaned.
func (c *Collector) Run(ctx context.Context) error {
	if c.aircraft == nil {
		c.aircraft = make(map[string]struct{})
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Stats every 10 polls
	statsEvery := 10

	// Do first poll immediately
	c.poll(ctx)
	for !c.done() {
		select {
		case <-ctx.Done():
			log.Println("Collection interrupted, cleaning what was collected")
			return c.finish(context.Background())
		case <-ticker.C:
			c.poll(ctx)
			if c.totalPolls%statsEvery == 0 {
				c.printStats()
			}
		}
	}
	return c.finish(ctx)
}

func (c *Collector) done() bool {
	return c.polls > 0 && c.totalPolls >= c.polls
}

// poll fetches and stores one sample.
func (c *Collector) poll(ctx context.Context) {
	c.totalPolls++

	states, err := opensky.RetryWithBackoffResult(ctx, c.retry, func() (*opensky.StatesResponse, error) {
		return c.source.GetStates(ctx)
	})
	if err != nil {
		c.failedPolls++
		log.Printf("✗ Poll %d failed after retries: %v (will retry next cycle)", c.totalPolls, err)
		return
	}

	samples := states.Samples(c.sampleSize)
	if err := c.sink.Write(ctx, samples); err != nil {
		c.failedPolls++
		log.Printf("✗ Poll %d: failed to store samples: %v", c.totalPolls, err)
		return
	}

	for _, s := range samples {
		c.aircraft[s.EntityID] = struct{}{}
		if s.Missing {
			c.missing++
		}
	}
	c.totalSamples += len(samples)

	log.Printf("[%s] Poll %d: %d states, %d sampled",
		states.Timestamp().Format("15:04:05"), c.totalPolls, len(states.States), len(samples))
}

func (c *Collector) finish(ctx context.Context) error {
	c.printStats()
	kept, err := c.sink.Finish(ctx, c.minSamples)
	if err != nil {
		return fmt.Errorf("failed to clean dataset: %w", err)
	}
	log.Printf("✓ Cleaning complete: %d records kept (min %d samples per aircraft)", kept, c.minSamples)
	return nil
}

// printStats displays current statistics.
func (c *Collector) printStats() {
	log.Printf("📊 Stats: %d polls (%d failed) | %d samples | %d aircraft | %d incomplete samples",
		c.totalPolls, c.failedPolls, c.totalSamples, len(c.aircraft), c.missing)
}

// csvSink appends raw samples to a CSV file and writes the cleaned dataset
// to a second file.
type csvSink struct {
	rawPath   string
	cleanPath string
	file      *os.File
	w         *dataset.CSVWriter
}

func newCSVSink(rawPath, cleanPath string) (*csvSink, error) {
	info, statErr := os.Stat(rawPath)
	writeHeader := errors.Is(statErr, os.ErrNotExist) || (statErr == nil && info.Size() == 0)

	f, err := os.OpenFile(rawPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw dataset: %w", err)
	}
	w, err := dataset.NewCSVWriter(f, writeHeader)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &csvSink{rawPath: rawPath, cleanPath: cleanPath, file: f, w: w}, nil
}

func (s *csvSink) Write(_ context.Context, samples []dataset.Sample) error {
	return s.w.Write(samples)
}

func (s *csvSink) Finish(_ context.Context, minSamples int) (int, error) {
	f, err := os.Open(s.rawPath)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen raw dataset: %w", err)
	}
	defer f.Close()

	samples, err := dataset.ReadSamples(f)
	if err != nil {
		return 0, err
	}
	records := dataset.Clean(samples, minSamples)
	if err := dataset.WriteFile(s.cleanPath, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *csvSink) Close() error {
	return s.file.Close()
}

// dbSink stores samples in the database under one collection run. It owns
// the connection and replaces it when a write finds it gone.
type dbSink struct {
	database  *db.DB
	cfg       config.DatabaseConfig
	repo      *db.RecordRepository
	runID     uuid.UUID
	cleanPath string
}

func newDBSink(ctx context.Context, database *db.DB, cfg config.DatabaseConfig, cleanPath string) (*dbSink, error) {
	s := &dbSink{
		database:  database,
		cfg:       cfg,
		repo:      db.NewRecordRepository(database),
		cleanPath: cleanPath,
	}
	runID, err := s.repo.StartRun(ctx)
	if err != nil {
		return nil, err
	}
	s.runID = runID
	log.Printf("✓ Collection run %s started", runID)
	return s, nil
}

// connect returns a repository on a live connection, reconnecting first if
// the current one stopped answering.
func (s *dbSink) connect(ctx context.Context) (*db.RecordRepository, error) {
	database, err := db.EnsureConnection(ctx, s.database, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if database != s.database {
		if err := database.InitSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		s.database = database
		s.repo = db.NewRecordRepository(database)
		log.Println("✓ Database reconnected")
	}
	return s.repo, nil
}

func (s *dbSink) Write(ctx context.Context, samples []dataset.Sample) error {
	repo, err := s.connect(ctx)
	if err != nil {
		return err
	}
	return db.WithRetry(ctx, func() error {
		return repo.InsertSamples(ctx, s.runID, samples)
	}, 3)
}

func (s *dbSink) Finish(ctx context.Context, minSamples int) (int, error) {
	if _, err := s.connect(ctx); err != nil {
		return 0, err
	}
	if err := s.repo.FinishRun(ctx, s.runID); err != nil {
		return 0, err
	}
	removed, err := s.repo.Clean(ctx, minSamples)
	if err != nil {
		return 0, err
	}
	log.Printf("Removed %d incomplete or short-track samples", removed)

	records, err := s.repo.LoadRecords(ctx)
	if err != nil {
		return 0, err
	}
	if s.cleanPath != "" {
		if err := dataset.WriteFile(s.cleanPath, records); err != nil {
			return 0, err
		}
		log.Printf("✓ Cleaned dataset exported to %s", s.cleanPath)
	}
	return len(records), nil
}

func (s *dbSink) Close() error {
	return s.database.Close()
}
