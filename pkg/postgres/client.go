// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/absmach/cloudca/pkg/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	errMigration               = errors.New("failed to apply migrations")
	errInvalidConnectionString = errors.New("invalid connection string")
)

// PoolConfig tunes the pgx connection pool.
type PoolConfig struct {
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME"   envDefault:"1h"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME"  envDefault:"15m"`
	MaxConns          uint16        `env:"MAX_CONNS"           envDefault:"5"`
	MinConns          uint16        `env:"MIN_CONNS"           envDefault:"1"`
	HealthCheckPeriod time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// Config defines the options that are used when connecting to a PostgreSQL instance.
type Config struct {
	Host        string     `env:"HOST"          envDefault:"localhost"`
	Port        string     `env:"PORT"          envDefault:"5432"`
	User        string     `env:"USER"          envDefault:"cloudca"`
	Pass        string     `env:"PASS"          envDefault:"cloudca"`
	Name        string     `env:"NAME"          envDefault:"certificate_authority"`
	SSLMode     string     `env:"SSL_MODE"      envDefault:"disable"`
	SSLCert     string     `env:"SSL_CERT"      envDefault:""`
	SSLKey      string     `env:"SSL_KEY"       envDefault:""`
	SSLRootCert string     `env:"SSL_ROOT_CERT" envDefault:""`
	Pool        PoolConfig `envPrefix:"POOL_"`
}

// Setup creates a connection to the Postgres instance and applies any
// unapplied database migrations. A non-nil error is returned to indicate
// failure.
func Setup(cfg Config, migrations migrate.MemoryMigrationSource) (*sqlx.DB, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	if _, err = migrate.Exec(db.DB, "postgres", migrations, migrate.Up); err != nil {
		return nil, errors.Wrap(errMigration, err)
	}

	return db, nil
}

// Connect creates a connection to the Postgres instance.
func Connect(cfg Config) (*sqlx.DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.dbConnURL())
	if err != nil {
		return nil, errors.Wrap(errInvalidConnectionString, err)
	}

	// Zero values keep the pgxpool defaults.
	if cfg.Pool.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	}
	if cfg.Pool.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	}
	if cfg.Pool.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.Pool.MaxConns)
	}
	if cfg.Pool.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.Pool.MinConns)
	}
	if cfg.Pool.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.Pool.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}

	return sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"), nil
}

func (cfg Config) dbConnURL() string {
	params := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"user", cfg.User},
		{"password", cfg.Pass},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
		{"sslcert", cfg.SSLCert},
		{"sslkey", cfg.SSLKey},
		{"sslrootcert", cfg.SSLRootCert},
	}

	parts := []string{}
	for _, p := range params {
		if p.value != "" {
			parts = append(parts, p.key+"="+p.value)
		}
	}

	return strings.Join(parts, " ")
}
