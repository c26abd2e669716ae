// Package main implements the entry point for the draftmill API server,
// which runs the content-generation workflow engine and its HTTP surface.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/draftmill/draftmill-api/internal/config"
	"github.com/draftmill/draftmill-api/internal/platform/logger"
	"github.com/joho/godotenv"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	app, err := newApplication(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", slog.String("error", err.Error()))
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		appLogger.Error("server exited with error", slog.String("error", err.Error()))
		log.Fatalf("Server error: %v", err)
	}
}
