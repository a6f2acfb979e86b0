package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/register/internal/adapters/http/api"
	"github.com/okian/register/internal/adapters/http/swagger"
	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/adapters/recordstore/airtable"
	"github.com/okian/register/internal/adapters/recordstore/sqlitestore"
	service "github.com/okian/register/internal/app"
	"github.com/okian/register/internal/config"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
	"github.com/okian/register/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		stop()
		os.Exit(1)
	}

	if cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			logger.Get().Warn(ctx, "invalid log_format; keeping text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "service stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error(context.Background(), "failed to close record store", logger.Error(err))
		}
	}()

	svc := newService(cfg, store, log)

	go startSystemMetricsUpdater(ctx, metrics.RefreshInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore builds the configured record store behind the metrics decorator.
// The returned func releases backend resources.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (recordstore.Store, func() error, error) {
	storeLog := log.Named("recordstore")
	switch cfg.StoreBackend {
	case config.BackendAirtable:
		c, err := airtable.New(cfg.AirtableBaseURL, cfg.AirtableBaseID, cfg.AirtableToken,
			airtable.WithTimeout(cfg.StoreTimeout()),
			airtable.WithUserAgent(cfg.ProjectName+"/"+cfg.ProjectVersion),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open airtable store: %w", err)
		}
		return recordstore.Instrument(c, config.BackendAirtable, storeLog), func() error { return nil }, nil
	case config.BackendSQLite:
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath,
			// Airtable exposes the linked event id through a lookup field of
			// this name; the local store maps it to the relation itself.
			sqlitestore.WithFieldAlias(cfg.AttendanceTable, model.FieldAttendanceEventID, model.FieldAttendanceEvent),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return recordstore.Instrument(db, config.BackendSQLite, storeLog), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}

func newService(cfg *config.Config, store recordstore.Store, log logger.Logger) *service.Service {
	return service.New(store,
		service.WithLogger(log),
		service.WithStoreTimeout(cfg.StoreTimeout()),
		service.WithDefaultPageSize(cfg.DefaultPageSize),
		service.WithTables(service.Tables{
			Members:    cfg.MembersTable,
			Events:     cfg.EventsTable,
			Attendance: cfg.AttendanceTable,
			Branches:   cfg.BranchesTable,
		}),
	)
}

// newHandler registers every route and wraps the mux in request logging
// and CORS.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	stats := api.StaticStats{
		Info: map[string]interface{}{
			"name":    cfg.ProjectName,
			"version": cfg.ProjectVersion,
			"backend": cfg.StoreBackend,
		},
		Next: svc,
	}
	api.NewServer(svc, stats, log).Register(ctx, mux)

	return api.Chain(mux, api.RequestLogger(log), api.CORS(cfg.AllowedOrigins))
}

// startSystemMetricsUpdater refreshes the system gauges every interval until
// ctx ends.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	updateSystemMetrics()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
