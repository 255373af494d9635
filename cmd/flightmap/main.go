package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/internal/source"
	"github.com/unklstewy/flightmap/pkg/config"
)

// Flightmap replays a recorded flight dataset on a terminal map.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	datasetPath := flag.String("dataset", "", "Dataset file (overrides config)")
	logPath := flag.String("log", "flightmap.log", "Log file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *datasetPath != "" {
		cfg.Dataset.Source = "csv"
		cfg.Dataset.Path = *datasetPath
	}

	// The alt screen owns stdout, so logs go to a file.
	f, err := tea.LogToFile(*logPath, "flightmap")
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()

	ds, err := source.Load(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		os.Exit(1)
	}

	orch := engine.New(ds, engine.Options{
		Speed:    cfg.Playback.DefaultSpeed,
		MapStyle: cfg.Playback.MapStyle,
	})
	m := newModel(orch, cfg.Playback.TickInterval(), cfg.Playback.TickStep())

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
