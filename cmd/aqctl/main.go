package main

import (
	"fmt"
	"os"

	"AirCast/internal/di"
	"AirCast/pkg/config"
	applogger "AirCast/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	root := newRootCmd(openServices, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openServices wires the real use cases. Logs go to stderr so stdout stays JSON.
func openServices(configPath string, verbose bool) (*deps, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	s, err := di.InitializeServices(cfg, l)
	if err != nil {
		return nil, err
	}
	return &deps{
		sync:     s.Sync,
		backfill: s.Backfill,
		board:    s.Dashboard,
		forecast: s.Forecast,
		models:   s.Models,
		close:    s.Close,
	}, nil
}
