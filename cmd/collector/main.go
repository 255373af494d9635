package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/pkg/config"
	"github.com/unklstewy/flightmap/pkg/opensky"
)

// Collector samples live OpenSky state vectors into a historical flight
// dataset for later playback.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	polls := flag.Int("polls", -1, "Override the number of polls (0 = until stopped)")
	flag.Parse()

	log.Println("===========================================")
	log.Println("  OpenSky Flight Collector")
	log.Println("===========================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cc := cfg.Collector
	if *polls >= 0 {
		cc.Polls = *polls
	}

	log.Printf("Configuration loaded from: %s", *configPath)
	log.Printf("Source: %s", cc.BaseURL)
	log.Printf("Poll interval: %v, %d states per poll, %d polls", cc.PollInterval(), cc.SampleSize, cc.Polls)
	log.Printf("Cleaning: drop incomplete aircraft and those with < %d samples", cc.MinSamples)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := opensky.NewClient(opensky.Config{
		BaseURL:           cc.BaseURL,
		Username:          cc.Username,
		Password:          cc.Password,
		RequestsPerMinute: cc.RequestsPerMinute,
	})
	if client.Authenticated() {
		log.Printf("✓ Using authenticated access as %s", cc.Username)
	} else {
		log.Println("ℹ Using anonymous access")
	}

	var sink Sink
	switch cc.Sink {
	case "database":
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 5, time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("✓ Database schema initialized")

		sink, err = newDBSink(ctx, database, cfg.Database, cc.CleanPath)
		if err != nil {
			database.Close()
			log.Fatalf("Failed to start collection run: %v", err)
		}
	default:
		sink, err = newCSVSink(cc.RawPath, cc.CleanPath)
		if err != nil {
			log.Fatalf("Failed to open CSV sink: %v", err)
		}
		log.Printf("✓ Writing raw samples to %s", cc.RawPath)
	}
	defer sink.Close()

	collector := &Collector{
		source:     client,
		sink:       sink,
		interval:   cc.PollInterval(),
		sampleSize: cc.SampleSize,
		polls:      cc.Polls,
		minSamples: cc.MinSamples,
		retry:      opensky.DefaultRetryConfig(),
	}

	log.Println("\n===========================================")
	log.Println("  Collector started")
	log.Println("  Press Ctrl+C to stop")
	log.Println("===========================================")

	if err := collector.Run(ctx); err != nil {
		log.Fatalf("Collector failed: %v", err)
	}
	log.Println("✓ Collector stopped")
}
