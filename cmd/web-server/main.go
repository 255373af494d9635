// Flightmap Web Server
// Serves the playback REST API and pushes render payloads over WebSocket
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/internal/source"
	"github.com/unklstewy/flightmap/pkg/config"
)

var (
	configPath  = flag.String("config", "configs/config.json", "Path to configuration file")
	port        = flag.String("port", "", "HTTP server port (overrides config)")
	datasetPath = flag.String("dataset", "", "Dataset file (overrides config)")
)

func main() {
	flag.Parse()

	log.Println("🚀 Starting Flightmap Web Server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *datasetPath != "" {
		cfg.Dataset.Source = "csv"
		cfg.Dataset.Path = *datasetPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := source.Load(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	orch := engine.New(ds, engine.Options{
		Speed:    cfg.Playback.DefaultSpeed,
		MapStyle: cfg.Playback.MapStyle,
	})
	loop := engine.NewLoop(orch, engine.LoopOptions{
		Interval: cfg.Playback.TickInterval(),
		Step:     cfg.Playback.TickStep(),
	})
	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("✗ Render loop stopped: %v", err)
		}
	}()

	srv := NewServer(loop, cfg)
	if cfg.Dataset.Source == "database" {
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 3, time.Second)
		if err != nil {
			log.Printf("✗ Database health checks disabled: %v", err)
		} else {
			defer database.Close()
			srv.SetDatabase(database)
		}
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     srv,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("📡 Server listening on http://%s", addr)
		log.Printf("   CORS origins: %s", originList(cfg.Server.AllowedOrigins))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("\n👋 Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("✅ Server stopped")
}
