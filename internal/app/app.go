// Package app wires configuration, logging, storage, domain services,
// and the HTTP server into one runnable unit with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/Aurimar-Mr/backend-nube/internal/analysis"
	"github.com/Aurimar-Mr/backend-nube/internal/config"
	"github.com/Aurimar-Mr/backend-nube/internal/events"
	"github.com/Aurimar-Mr/backend-nube/internal/httpapi"
	"github.com/Aurimar-Mr/backend-nube/internal/process"
	"github.com/Aurimar-Mr/backend-nube/internal/readings"
	"github.com/Aurimar-Mr/backend-nube/internal/storage"
	"github.com/Aurimar-Mr/backend-nube/internal/users"
	"github.com/Aurimar-Mr/backend-nube/internal/voice"
)

// Application owns every long-lived resource of the service.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	logFile   *os.File
	db        *gorm.DB
	server    *http.Server
	health    *httpapi.HealthState
	publisher *events.Publisher
}

// New prepares a fully wired service instance: log sink, database
// connection and migration, classifier artifacts, domain services, and
// the HTTP router. Missing model artifacts are a degraded mode, not a
// startup failure.
func New(cfg config.Config) (*Application, error) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	logPath := filepath.Clean(cfg.LogFilePath)
	if logPath == "" {
		return nil, errors.New("log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := newLogger(lf)

	db, err := storage.Open(storage.MySQLDSN(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName), logger)
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("storage init: %w", err)
	}
	if err := storage.Migrate(db, logger); err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("storage migrate: %w", err)
	}

	var clf analysis.Classifier
	fileClf, err := analysis.LoadClassifier(cfg.ModelDir)
	if err != nil {
		logger.Error("model_artifacts_unavailable",
			slog.String("dir", cfg.ModelDir),
			slog.Any("err", err),
		)
	} else {
		clf = fileClf
		logger.Info("model_artifacts_loaded", slog.String("dir", cfg.ModelDir))
	}

	tracker := process.NewTracker(db, logger)
	lecturas := readings.NewService(db, tracker, logger)
	predictor := analysis.NewPredictor(clf, tracker, lecturas, logger)
	usuarios := users.NewService(db, logger)
	voz := voice.NewService(db, logger)
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.AlertTopic, logger)

	health := httpapi.NewHealthState()
	handlers := &httpapi.Handlers{
		Log:       logger.With(slog.String("component", "httpapi")),
		Tracker:   tracker,
		Lecturas:  lecturas,
		Predictor: predictor,
		Usuarios:  usuarios,
		Voz:       voz,
		Alertas:   publisher,
	}
	router := httpapi.NewRouter(handlers, health)

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      httpapi.WrapWithLogging(logger, router),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	return &Application{
		cfg:       cfg,
		logger:    logger,
		logFile:   lf,
		db:        db,
		server:    server,
		health:    health,
		publisher: publisher,
	}, nil
}

// Logger exposes the fully configured logger for the entrypoint.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Run serves HTTP until ctx is canceled, then shuts down gracefully
// within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http_server_listening", slog.String("address", a.cfg.ListenAddress))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	a.health.SetReady(true)

	select {
	case err := <-errCh:
		a.health.SetReady(false)
		return err
	case <-ctx.Done():
	}

	a.health.SetReady(false)
	a.logger.Info("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the Kafka writer, database pool, and log file.
func (a *Application) Close() error {
	var firstErr error
	if err := a.publisher.Close(); err != nil {
		firstErr = err
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil && firstErr == nil {
			firstErr = cerr
		}
	}
	if err := a.logFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
