package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

const postgresTable = `CREATE TABLE IF NOT EXISTS %s (
	id             BIGSERIAL PRIMARY KEY,
	vendor_name    TEXT NOT NULL,
	amount         DOUBLE PRECISION NOT NULL,
	products       JSONB NOT NULL,
	total_amount   DOUBLE PRECISION NOT NULL,
	date           TIMESTAMPTZ NOT NULL,
	date_defaulted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	file_path      TEXT
)`

const sqliteTable = `CREATE TABLE IF NOT EXISTS %s (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_name    TEXT NOT NULL,
	amount         REAL NOT NULL,
	products       JSON NOT NULL,
	total_amount   REAL NOT NULL,
	date           DATETIME NOT NULL,
	date_defaulted BOOLEAN NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	file_path      TEXT
)`

const dateIndex = `CREATE INDEX IF NOT EXISTS %s_date_idx ON %s (date)`

// Migrate creates the invoices and receipts tables if they do not exist.
// It is the explicit startup step; nothing creates tables implicitly.
func Migrate(ctx context.Context, db *DB) error {
	start := time.Now()
	ddl := sqliteTable
	if db.Dialect() == dialect.Postgres {
		ddl = postgresTable
	}
	for _, docType := range constants.DocumentTypes {
		table, _ := docType.Table()
		for _, stmt := range []string{fmt.Sprintf(ddl, table), fmt.Sprintf(dateIndex, table, table)} {
			if err := db.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
				db.logger.Error("db.migrate.failed", "table", table, "error", err)
				return common.PersistenceError("create table "+table, err)
			}
		}
	}
	db.logger.Info("db.migrate.ok", "dialect", db.Dialect(), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
