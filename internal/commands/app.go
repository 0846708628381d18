package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/glengine/internal/api"
	"github.com/cleared-dev/glengine/internal/cache"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/logging"
	"github.com/cleared-dev/glengine/internal/rowsource"
	"github.com/cleared-dev/glengine/internal/rowsource/gormsource"
	"github.com/cleared-dev/glengine/internal/rowsource/sqlsource"
)

// app is the wiring shared by the commands that read the ledger.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	src    rowsource.Source
	ledger *ledger.Service
	rdb    *redis.Client
	tenant string
}

func openApp(ctx context.Context, opts *globalOptions) (*app, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	tenant := opts.tenant
	if tenant == "" {
		tenant = cfg.DefaultTenant
	}
	if tenant == "" {
		return nil, errors.New("no tenant: pass --tenant or set default_tenant in the config")
	}

	src, err := openSource(ctx, cfg, filepath.Dir(opts.configPath))
	if err != nil {
		return nil, err
	}

	svc, err := ledger.Open(ctx, src, rowsource.TenantFiltering(cfg.TenantFiltering),
		ledger.WithLogger(logger),
		ledger.WithGroupedTotals(cfg.UseGroupedTotals()),
	)
	if err != nil {
		src.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: logger, src: src, ledger: svc, tenant: tenant}, nil
}

// loadDotEnv loads .env from the working directory. A missing file is
// normal; a malformed one is an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func openSource(ctx context.Context, cfg *config.Config, baseDir string) (rowsource.Source, error) {
	switch cfg.Source.Driver {
	case config.DriverCSV:
		dir := cfg.Source.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		return rowsource.LoadCSVDir(dir)
	case config.DriverPostgres:
		return sqlsource.Open(ctx, cfg.Source.DSN, sqlsource.Options{})
	case config.DriverMySQL:
		return gormsource.Open(cfg.Source.DSN)
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
	}
}

// reports returns the report generator, wrapped in the Redis cache when it
// is enabled.
func (a *app) reports() api.Reports {
	if !a.cfg.Cache.Enabled {
		return a.ledger
	}
	if a.rdb == nil {
		a.rdb = redis.NewClient(&redis.Options{Addr: a.cfg.Cache.Addr})
	}
	return cache.New(a.ledger, a.rdb, cache.Options{
		TTL:    a.cfg.Cache.TTL,
		Prefix: a.cfg.Cache.Prefix,
		Logger: a.log,
	})
}

func (a *app) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	errs = append(errs, a.src.Close())
	return errors.Join(errs...)
}
