package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "infrastructure/migrations"

// gooseLogger adapts goose's log output onto slog so migration progress
// shows up in the structured log stream.
type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Error(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(fmt.Sprintf(format, v...))
}

// runMigrations applies any pending schema migrations before the server
// starts accepting work.
func runMigrations(db *sql.DB, log *slog.Logger) error {
	migrationLog := log.With(slog.String("component", "migrations"))
	goose.SetLogger(gooseLogger{log: migrationLog})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	migrationLog.Info("database schema up to date", slog.Int64("version", version))
	return nil
}
