package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/internal/source"
	"github.com/unklstewy/flightmap/pkg/config"
)

var (
	// Version information (set by build flags)
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	datasetPath := flag.String("dataset", "", "Dataset file (overrides config)")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flightmap-console version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *datasetPath != "" {
		cfg.Dataset.Source = "csv"
		cfg.Dataset.Path = *datasetPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := source.Load(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	// From here on the terminal belongs to tview.
	logs := NewLogManager(200)
	log.SetOutput(logs)
	log.SetFlags(0)
	engine.SetLogger(logs.Warn)

	orch := engine.New(ds, engine.Options{
		Speed:    cfg.Playback.DefaultSpeed,
		MapStyle: cfg.Playback.MapStyle,
	})
	loop := engine.NewLoop(orch, engine.LoopOptions{
		Interval: cfg.Playback.TickInterval(),
		Step:     cfg.Playback.TickStep(),
	})

	app := NewApp(loop, orch.Inputs(), orch.State().Speed, orch.Style(), cfg.Playback.MapStyles, logs)
	if err := app.Run(ctx); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Application error: %v", err)
	}
}

// printHelp prints usage information
func printHelp() {
	fmt.Println("flightmap-console - Form-based terminal console for flight playback")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  flightmap-console [options]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to configuration file (default: configs/config.json)")
	fmt.Println("  -dataset string")
	fmt.Println("        Dataset file, overrides the configured source")
	fmt.Println("  -version")
	fmt.Println("        Show version information")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println()
	fmt.Println("KEYBOARD SHORTCUTS (map focused):")
	fmt.Println("    p / SPACE      Play / pause")
	fmt.Println("    r              Restart with the form's window")
	fmt.Println("    TAB / click    Select next / clicked aircraft")
	fmt.Println("    m              Next map style")
	fmt.Println("    ←↑↓→           Pan")
	fmt.Println("    +/-  0         Zoom, reset view")
	fmt.Println("    c              Center on selection")
	fmt.Println("    F2             Switch focus between map and form")
	fmt.Println("    q or Ctrl+C    Quit application")
}
