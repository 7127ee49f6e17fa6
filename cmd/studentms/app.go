package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pspschool/studentms/config"
	"github.com/pspschool/studentms/internal/application/registry"
	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/internal/infrastructure/persistence/memory"
	"github.com/pspschool/studentms/internal/infrastructure/persistence/postgres"
	"github.com/pspschool/studentms/internal/infrastructure/persistence/redis"
	"github.com/pspschool/studentms/internal/infrastructure/persistence/sqlite"
	"github.com/pspschool/studentms/pkg/logger"
)

// flags are the command-line overrides; they win over every other source.
type flags struct {
	driver     string
	dbPath     string
	logLevel   string
	accessible bool
}

// app holds everything opened at startup. Close releases it in reverse order.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store school.Store
	cache *redis.Cache
	reg   *registry.Registry

	logFile io.Closer
}

// openApp loads configuration, opens the store, initialises the schema and
// builds the registry. On error everything opened so far is closed.
func openApp(ctx context.Context, f *flags) (a *app, err error) {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if f.driver != "" {
		cfg.Database.Driver = f.driver
	}
	if f.dbPath != "" {
		cfg.Database.Path = f.dbPath
	}
	if f.logLevel != "" {
		cfg.Observability.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	if err := a.setupLogger(); err != nil {
		return a, err
	}
	a.log.Info("starting studentms",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("driver", cfg.Database.Driver),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORE
	// ─────────────────────────────────────────────────────────────────────────
	if a.store, err = openStore(ctx, cfg, a.log); err != nil {
		return a, fmt.Errorf("failed to open store: %w", err)
	}
	if err := a.store.InitSchema(ctx); err != nil {
		return a, fmt.Errorf("failed to initialise schema: %w", err)
	}
	if counts, err := a.store.Counts(ctx); err == nil {
		a.log.Info("store ready",
			logger.Int("students", counts.Students),
			logger.Int("courses", counts.Courses),
			logger.Int("enrollments", counts.Enrollments),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPORT CACHE (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var reports school.ReportCache
	if cfg.Redis.Enabled {
		rcfg := redis.DefaultConfig()
		rcfg.Host = cfg.Redis.Host
		rcfg.Port = cfg.Redis.Port
		rcfg.Password = cfg.Redis.Password
		rcfg.DB = cfg.Redis.DB

		cache, cerr := redis.NewCache(ctx, rcfg)
		if cerr != nil {
			a.log.Warn("redis unavailable, reports are built from memory only", logger.Err(cerr))
		} else {
			a.cache = cache
			reports = redis.NewReportCache(cache, cfg.Redis.TTL, redis.WithLogger(a.log))
			a.log.Info("report cache enabled", logger.String("addr", rcfg.Addr()))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REGISTRY
	// ─────────────────────────────────────────────────────────────────────────
	a.reg, err = registry.New(ctx, a.store, registry.Options{
		Logger:          a.log,
		Cache:           reports,
		OnInconsistency: registry.Policy(cfg.Mirror.OnInconsistency),
	})
	if err != nil {
		return a, fmt.Errorf("failed to load mirror: %w", err)
	}

	return a, nil
}

func (a *app) setupLogger() error {
	obs := a.cfg.Observability
	var out io.Writer = os.Stderr
	if obs.LogFile != "" {
		f, err := os.OpenFile(obs.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		out = f
	}

	a.log = logger.New(logger.Options{
		Output:    out,
		Level:     logger.ParseLevel(obs.LogLevel),
		Format:    logger.Format(obs.LogFormat),
		AddCaller: !a.cfg.IsProduction(),
	})
	return nil
}

// openStore picks the backend named by cfg.Database.Driver.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (school.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pcfg := postgres.DefaultConfig(cfg.Database.URL)
		pcfg.ConnectAttempts = cfg.Database.ConnectAttempts
		s, err := postgres.Open(ctx, pcfg, cfg.Database.QueryTimeout, log)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.DriverMemory:
		log.Warn("memory driver selected, nothing will be persisted")
		return memory.New(), nil

	default:
		s, err := sqlite.Open(ctx, cfg.Database.Path, sqlite.Options{
			QueryTimeout: cfg.Database.QueryTimeout,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Close releases the cache, the store and the log file. Safe on a partly
// opened app.
func (a *app) Close() {
	if a == nil {
		return
	}
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.store != nil {
		if a.log != nil {
			a.log.Info("closing store")
		}
		errs = append(errs, a.store.Close())
	}
	if err := errors.Join(errs...); err != nil && a.log != nil {
		a.log.Warn("shutdown", logger.Err(err))
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
