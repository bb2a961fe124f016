package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the catalog database at the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	// Ensure a DSN is set before attempting to open the database.
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Connect to the database with some sane settings:
	// - No shared-cache: it's obsolete; WAL journal mode is a better solution.
	// - Busy timeout so concurrent readers survive the single writer.
	// - Journal mode set to WAL: it's the recommended journal mode for most
	//   applications as it prevents locking issues.
	//
	// Note: when using the `modernc.org/sqlite` driver, each pragma must be
	// prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite handles concurrency through WAL; a single pooled connection is
	// optimal and avoids SQLITE_BUSY churn on concurrent chat turns.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationDDL = []string{
	`CREATE TABLE IF NOT EXISTS product (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		brand TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		stock INTEGER NOT NULL DEFAULT 0,
		rating REAL NOT NULL DEFAULT 0,
		image_url TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_category ON product (category)`,
	`CREATE INDEX IF NOT EXISTS idx_product_price ON product (price)`,
	`CREATE TABLE IF NOT EXISTS review (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL,
		rating INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL DEFAULT 'neutral'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_product_id ON review (product_id)`,
	`CREATE TABLE IF NOT EXISTS policy (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		policy_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		conditions TEXT NOT NULL DEFAULT '',
		timeframe TEXT NOT NULL DEFAULT ''
	)`,
}

// Migrate creates the catalog schema. All statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationDDL {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to run migration statement")
		}
	}
	return nil
}
