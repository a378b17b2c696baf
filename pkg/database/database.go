package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const connectTimeout = 10 * time.Second

// NewPool opens a pgx pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Int32("max_conns", config.MaxConns).
		Msg("database connected")
	return pool, nil
}

// AdminPool returns the pool and DSN used for tenant database DDL. Without a
// separate admin DSN the application pool is reused and close is a no-op.
func AdminPool(ctx context.Context, app *pgxpool.Pool, appURL, adminURL string) (*pgxpool.Pool, string, func(), error) {
	if adminURL == "" {
		return app, appURL, func() {}, nil
	}
	admin, err := NewPool(ctx, adminURL, 2)
	if err != nil {
		return nil, "", nil, fmt.Errorf("admin pool: %w", err)
	}
	return admin, adminURL, admin.Close, nil
}
