// Package application wires configuration into a running import service:
// database pool, stores, identity provider and the optional Redis and S3
// side channels. Both the HTTP server and the importctl CLI start here.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/academia/internal/archive"
	"github.com/JonMunkholm/academia/internal/config"
	"github.com/JonMunkholm/academia/internal/core"
	_ "github.com/JonMunkholm/academia/internal/core/kinds" // register import kinds
	"github.com/JonMunkholm/academia/internal/database"
	"github.com/JonMunkholm/academia/internal/identity"
	"github.com/JonMunkholm/academia/internal/progress"
	"github.com/JonMunkholm/academia/internal/store"
)

// App holds the long lived dependencies of a process.
type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Service  *core.Service
	Progress *progress.RedisSink // nil unless REDIS_URL is set
}

// New connects to the database and builds the service described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Pool: pool}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("database schema applied")
	}

	ids, err := newIdentityProvider(cfg.Auth, pool)
	if err != nil {
		app.Close()
		return nil, err
	}

	opts := core.Options{
		MaxFileSize:      cfg.Import.MaxFileSize,
		MaxConcurrent:    cfg.Import.MaxConcurrent,
		MaxWait:          cfg.Import.MaxWaitTime,
		ProgressInterval: cfg.Import.ProgressInterval,
		DefaultPassword:  cfg.Import.DefaultPassword,
	}

	if cfg.Redis.URL != "" {
		sink, err := progress.Connect(ctx, cfg.Redis.URL, cfg.Redis.ProgressTTL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Progress = sink
		opts.Sink = sink
		slog.Info("publishing import progress to redis")
	}

	if cfg.Archive.Bucket != "" {
		archiver, err := archive.New(ctx, archive.Config{
			Bucket: cfg.Archive.Bucket,
			Region: cfg.Archive.Region,
			Prefix: cfg.Archive.Prefix,
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		opts.Archiver = archiver
		slog.Info("archiving uploads to s3", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	pg := store.NewPostgres(pool)
	app.Service = core.NewService(pg, pg, ids, opts)

	kinds := make([]string, 0, len(core.ImportKinds()))
	for _, info := range app.Service.Kinds() {
		kinds = append(kinds, string(info.Kind))
	}
	slog.Info("import kinds registered", "kinds", strings.Join(kinds, ","))

	return app, nil
}

// Close releases the pool and the Redis client.
func (a *App) Close() {
	if a.Progress != nil {
		if err := a.Progress.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// Connect opens a pgx pool sized by cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

func newIdentityProvider(cfg config.AuthConfig, pool *pgxpool.Pool) (core.IdentityProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gotrue":
		client := identity.NewRetryClient(&http.Client{Timeout: cfg.RequestTimeout}, 3)
		slog.Info("using gotrue identity provider", "url", cfg.GoTrueURL)
		return identity.NewGoTrue(cfg.GoTrueURL, cfg.ServiceRoleKey, client), nil
	case "local":
		slog.Info("using local identity provider")
		return identity.NewLocal(pool, cfg.BcryptCost), nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
}
