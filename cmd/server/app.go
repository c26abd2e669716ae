package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftmill/draftmill-api/internal/api"
	"github.com/draftmill/draftmill-api/internal/config"
	"github.com/draftmill/draftmill-api/internal/events"
	"github.com/draftmill/draftmill-api/internal/platform/gemini"
	"github.com/draftmill/draftmill-api/internal/platform/objstore"
	"github.com/draftmill/draftmill-api/internal/platform/postgres"
	"github.com/draftmill/draftmill-api/internal/platform/vectorstore"
	"github.com/draftmill/draftmill-api/internal/platform/webcontent"
	"github.com/draftmill/draftmill-api/internal/task"
	"github.com/draftmill/draftmill-api/internal/workflow"
)

// application holds the fully wired server: persistence, workflow engine,
// task runner, and HTTP surface. It is constructed once at startup and torn
// down in reverse order on shutdown.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	runner *task.TaskRunner
	server *http.Server
}

// newApplication wires every component of the server. The dispatcher cycle
// between the workflow engine and the task runner is resolved in two phases:
// the engine's task factory feeds the task store, the runner is built on that
// store, and only then is the runner attached back to the engine.
func newApplication(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create LLM generator: %w", err)
	}

	storage, err := objstore.New(ctx, cfg.Storage, appLogger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	webClient := webcontent.NewClient(cfg.Web, appLogger)

	agentStore := postgres.NewPostgresAgentStore(db, appLogger)
	contentStore := postgres.NewPostgresContentStore(db, appLogger)
	knowledgeStore := vectorstore.NewKnowledgeStore(db, generator, appLogger)

	engine, err := workflow.NewEngine(workflow.EngineConfig{
		Agents:    agentStore,
		Contents:  contentStore,
		TextGen:   generator,
		ObjectGen: generator,
		Knowledge: knowledgeStore,
		Storage:   storage,
		Crawler:   webClient,
		Searcher:  webClient,
		Retry:     task.RetryPolicy{MaxRetries: cfg.Tasks.MaxRetries},
		Logger:    appLogger,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create workflow engine: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, appLogger, engine.BuildTask)
	runner := task.NewTaskRunner(taskStore, taskRunnerConfig(cfg.Tasks), appLogger)
	engine.SetDispatcher(runner)

	emitter := events.NewInMemoryEventEmitter(appLogger)
	eventHandler, err := workflow.NewEventHandler(engine, appLogger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create workflow event handler: %w", err)
	}
	emitter.RegisterHandler(eventHandler)

	workflowHandler, err := api.NewWorkflowHandler(emitter, taskStore, appLogger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create workflow handler: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(workflowHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &application{
		cfg:    cfg,
		logger: appLogger,
		db:     db,
		runner: runner,
		server: server,
	}, nil
}

// taskRunnerConfig maps the loaded configuration onto the runner, leaving
// zero values to the runner's own defaults.
func taskRunnerConfig(cfg config.TaskConfig) task.TaskRunnerConfig {
	return task.TaskRunnerConfig{
		WorkerCount:  cfg.WorkerCount,
		QueueSize:    cfg.QueueSize,
		StuckTaskAge: time.Duration(cfg.StuckTaskAgeMinutes) * time.Minute,
	}
}

// Run starts the task runner and HTTP server, then blocks until the process
// receives SIGINT or SIGTERM. Shutdown drains in-flight HTTP requests first,
// then stops the runner so interrupted workflow runs are marked cancelled
// rather than stranded in processing.
func (a *application) Run(ctx context.Context) error {
	if err := a.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	select {
	case sig := <-shutdownCh:
		a.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		a.shutdown(ctx)
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	a.shutdown(ctx)
	return nil
}

func (a *application) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	a.runner.Stop()

	if err := a.db.Close(); err != nil {
		a.logger.Error("database close failed", slog.String("error", err.Error()))
	}

	a.logger.Info("server stopped")
}
