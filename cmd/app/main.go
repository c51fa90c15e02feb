package main

import (
	"context"
	"flag"
	"log"
	"os"

	"AirCast/internal/di"
	"AirCast/pkg/config"
	applogger "AirCast/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	l.Info("starting aircast",
		applogger.String("env", cfg.Environment),
		applogger.String("backend", cfg.Storage.Backend),
		applogger.String("ingest_mode", cfg.Ingest.Mode),
		applogger.Int64("location_id", cfg.Location.ID),
	)

	app, err := di.InitializeApp(cfg, l)
	if err != nil {
		l.Error("app initialization failed", applogger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		l.Error("app error", applogger.Error(err))
		os.Exit(1)
	}
}
