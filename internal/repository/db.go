package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

type Config struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is an open database behind an ent SQL driver.
type DB struct {
	drv    *entsql.Driver
	pool   *pgxpool.Pool // postgres only
	logger *slog.Logger
}

// ParseURL maps a database URL to an ent dialect and a driver DSN.
//
//	postgres://... | postgresql://...   -> postgres
//	sqlite:///./invoices.db             -> sqlite file ./invoices.db
//	sqlite:////var/lib/docs.db          -> sqlite file /var/lib/docs.db
//	sqlite://:memory:                   -> in-memory sqlite
//	file:... | <path>                   -> sqlite
func ParseURL(raw string) (string, string, error) {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return "", "", common.NewAppError(common.CodeValidation, "database url is empty", nil)
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return dialect.Postgres, u, nil
	case strings.HasPrefix(u, "sqlite://"):
		path := strings.TrimPrefix(u, "sqlite://")
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			path = ":memory:"
		}
		return dialect.SQLite, sqliteDSN(path), nil
	case strings.Contains(u, "://"):
		return "", "", common.NewAppError(common.CodeValidation, "unsupported database url scheme: "+u[:strings.Index(u, "://")], nil)
	default:
		return dialect.SQLite, sqliteDSN(u), nil
	}
}

func sqliteDSN(path string) string {
	params := "_time_format=sqlite"
	if path != ":memory:" {
		params += "&_pragma=busy_timeout(5000)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params
}

// Open connects to the database named by cfg.URL and wraps it for ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialectName, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("connecting to database", "dialect", dialectName)

	switch dialectName {
	case dialect.Postgres:
		return openPostgres(ctx, cfg, dsn, logger)
	default:
		return openSQLite(ctx, dsn, logger)
	}
}

func openPostgres(ctx context.Context, cfg Config, dsn string, logger *slog.Logger) (*DB, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, common.PersistenceError("parse database url", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "docs-extractor"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.PersistenceError("connect to postgres", err)
	}

	// Wrap pool as *sql.DB for Ent
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, logger: logger}, nil
}

func openSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.PersistenceError("open sqlite", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, common.PersistenceError("connect to sqlite", err)
	}
	logger.Info("successfully connected to database")
	return &DB{drv: entsql.OpenDB(dialect.SQLite, db), logger: logger}, nil
}

func (d *DB) Dialect() string { return d.drv.Dialect() }

// Close closes the database connections gracefully
func (d *DB) Close() {
	d.logger.Info("closing database connections")
	if err := d.drv.Close(); err != nil {
		d.logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.logger.Info("database connections closed")
}

// HealthCheck pings using database/sql to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	d.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.drv.DB().PingContext(ctx); err != nil {
		return common.PersistenceError("ping database", err)
	}
	d.logger.Debug("database ping successful")
	return nil
}
