package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/config"
	httptransport "github.com/example/facility-coordinator/internal/http"
	"github.com/example/facility-coordinator/internal/logging"
	"github.com/example/facility-coordinator/internal/messaging"
	"github.com/example/facility-coordinator/internal/persistence"
	"github.com/example/facility-coordinator/internal/persistence/memory"
	"github.com/example/facility-coordinator/internal/persistence/sqlite"
	"github.com/example/facility-coordinator/internal/persistence/sqlite/migration"
	"github.com/example/facility-coordinator/internal/recurrence"
	"github.com/example/facility-coordinator/internal/sessionstore"
)

// maxMemorySessions caps the in-process session store.
const maxMemorySessions = 1024

func main() {
	bootstrap := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("coordinator API stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	now := time.Now

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if cfg.Seed {
		if err := persistence.Seed(ctx, store, persistence.SeedData(now())); err != nil {
			return fmt.Errorf("seed storage: %w", err)
		}
	}

	sessions, closeSessions, err := openSessionStore(ctx, cfg, now)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSessions(); cerr != nil {
			logger.Error("failed to close session store", "error", cerr)
		}
	}()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer func() {
		if cerr := closePublisher(); cerr != nil {
			logger.Error("failed to close publisher", "error", cerr)
		}
	}()

	handler := newHandler(services{
		store:     store,
		sessions:  sessions,
		publisher: publisher,
		cfg:       cfg,
		now:       now,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("coordinator API listening",
		"addr", server.Addr,
		"storage", cfg.Storage,
		"session_store", cfg.SessionStore,
		"events", cfg.AMQPURL != "",
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, func() error, error) {
	if cfg.Storage != config.StorageSQLite {
		storage := memory.New()
		return storage, storage.Close, nil
	}

	if dir := filepath.Dir(cfg.SQLiteDSN); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	storage, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return storage, storage.Close, nil
}

func openSessionStore(ctx context.Context, cfg config.Config, now func() time.Time) (application.SessionStore, func() error, error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return sessionstore.NewMemoryStore(cfg.SessionTTL, maxMemorySessions, now), func() error { return nil }, nil
	}
	client, err := sessionstore.NewRedisClient(ctx, sessionstore.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return sessionstore.NewRedisStore(client, cfg.SessionTTL, now), client.Close, nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (application.EventPublisher, func() error) {
	if cfg.AMQPURL == "" {
		return messaging.NoopPublisher{Logger: logger}, func() error { return nil }
	}
	publisher := messaging.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger)
	return publisher, publisher.Close
}

type services struct {
	store     persistence.Store
	sessions  application.SessionStore
	publisher application.EventPublisher
	cfg       config.Config
	now       func() time.Time
}

func newHandler(deps services, logger *slog.Logger) http.Handler {
	catalog := newFacilityCatalogAdapter(deps.store)
	directory := newCoordinatorDirectoryAdapter(deps.store)
	assignments := newAssignmentStoreAdapter(deps.store)

	assignmentService := application.NewAssignmentService(application.AssignmentServiceDeps{
		Sessions:     deps.sessions,
		Facilities:   catalog,
		Coordinators: directory,
		Sink:         assignments,
		Events:       deps.publisher,
		Grid:         deps.cfg.Grid,
		SessionTTL:   deps.cfg.SessionTTL,
		IDGenerator:  uuid.NewString,
		Now:          deps.now,
		Logger:       logger,
	})
	facilityService := application.NewFacilityService(application.FacilityServiceDeps{
		Facilities:  catalog,
		Statuses:    newFacilityStatusAdapter(deps.store),
		Assignments: assignments,
		Recurrence:  recurrence.NewEngine(time.UTC),
		Now:         deps.now,
		Logger:      logger,
	})
	coordinatorService := application.NewCoordinatorService(directory, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Facilities:   httptransport.NewFacilityHandler(facilityService, logger),
		Coordinators: httptransport.NewCoordinatorHandler(coordinatorService, logger),
		Assignments:  httptransport.NewAssignmentHandler(assignmentService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})
}
