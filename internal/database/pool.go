package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/overlay-monitor/internal/config"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig, appName string) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg, appName)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// schema creates the delivery log.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS overlay_deliveries (
		message_id     UUID        NOT NULL,
		attempt        INTEGER     NOT NULL,
		event_type     TEXT        NOT NULL,
		sent_at        TIMESTAMPTZ NOT NULL,
		clients        INTEGER     NOT NULL,
		acknowledged   BOOLEAN     NOT NULL,
		ack_latency_ms BIGINT      NOT NULL DEFAULT 0,
		instance       TEXT        NOT NULL,
		PRIMARY KEY (message_id, attempt)
	)`,
	`CREATE INDEX IF NOT EXISTS overlay_deliveries_sent_at_idx ON overlay_deliveries (sent_at)`,
}

// Execer runs a statement. *pgxpool.Pool implements it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the delivery log table if it does not exist.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
