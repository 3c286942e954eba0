// Package postgres provides the PostgreSQL implementation of
// alarms.Service.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"telemetry-go/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS alarms (
			id VARCHAR(36) PRIMARY KEY,
			rule_id VARCHAR(64) NOT NULL,
			device_id VARCHAR(128) NOT NULL,
			description TEXT,
			severity VARCHAR(20),
			status VARCHAR(20) NOT NULL,
			date_created TIMESTAMP WITH TIME ZONE NOT NULL,
			date_modified TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alarms_rule ON alarms(rule_id, date_created);
		CREATE INDEX IF NOT EXISTS idx_alarms_device ON alarms(device_id);
		CREATE INDEX IF NOT EXISTS idx_alarms_created ON alarms(date_created);
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
