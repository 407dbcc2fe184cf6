package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"TimeTracker/internal/auth"
	"TimeTracker/internal/config"
	"TimeTracker/internal/infrastructure/export"
	"TimeTracker/internal/infrastructure/scheduler"
	"TimeTracker/internal/infrastructure/storage"
	"TimeTracker/internal/logging"
	"TimeTracker/internal/session"
	httptransport "TimeTracker/internal/transport/http"
	"TimeTracker/internal/usecase"
	"TimeTracker/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	server    *http.Server
	scheduler *usecase.Scheduler
	closer    io.Closer
}

// New opens the configured event store and builds the HTTP server.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	loc := cfg.Locale.Location()

	driver, err := storage.NewRegistry().Resolve(cfg.Store.Driver)
	if err != nil {
		return nil, err
	}
	store, closer, err := driver.Open(ctx, storage.Options{
		Path:     cfg.Store.Path,
		DSN:      cfg.Database.DSN,
		Location: loc,
		Logger:   baseLogger.With("component", "store."+driver.Name()),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver.Name(), err)
	}

	authn, err := auth.NewStatic(cfg.Auth)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	tracker := usecase.NewTracker(usecase.TrackerDeps{
		Store:    store,
		Auth:     authn,
		Exporter: export.XLSX{},
		Sessions: session.NewRegistry(),
		Clock:    usecase.SystemClock{Location: loc},
		Logger:   baseLogger.With("component", "tracker"),
	})

	handler, err := httptransport.NewHandler(httptransport.HandlerConfig{
		Tracker:      tracker,
		Logger:       baseLogger.With("component", "http"),
		Location:     loc,
		CookieSecure: cfg.HTTP.CookieSecure,
	})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTP.Address,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorLog:     logger.New(baseLogger, "http.server"),
	}, handler.Routes())

	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Export.Interval),
		tracker,
		cfg.Export.Directory,
		baseLogger.With("component", "export"),
	)

	baseLogger.Info("application configured",
		"store", driver.Name(),
		"address", cfg.HTTP.Address,
		"timezone", loc.String(),
		"export_dir", cfg.Export.Directory,
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		server:    server,
		scheduler: sched,
		closer:    closer,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.closer.Close(); err != nil {
			a.logger.Error("close store", "error", err)
		}
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("stop scheduler", "error", err)
	}
	return serveErr
}
