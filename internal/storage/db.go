// Package storage opens the on-device database, applies migrations and hands
// out the repositories bound to it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/inspectsync/internal/dbx"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/leases"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/records"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/settings"
	"github.com/dmitrijs2005/inspectsync/internal/storage/migrations"
)

// MemoryDSN opens a private in-memory database, mostly for tests.
const MemoryDSN = ":memory:"

// Repositories is the set of repositories bound to one open database.
type Repositories struct {
	DB       *sql.DB
	Records  records.Repository
	Settings settings.Repository
	Leases   leases.Repository
}

// Close closes the underlying database.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// RunMigrations brings the schema up to date. Running it again is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the database at path and migrates it.
// SQLite is used through a single connection, so writes are serialized.
func Open(ctx context.Context, path string) (*Repositories, error) {
	dsn := path
	if path != MemoryDSN {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Records:  records.NewSQLiteRepository(db),
		Settings: settings.NewSQLiteRepository(db),
		Leases:   leases.NewSQLiteRepository(db),
	}, nil
}

// Reset wipes all records and settings in one transaction. Leases are left to
// expire; a send still running elsewhere finds its record gone and drops the
// outcome.
func Reset(ctx context.Context, db *sql.DB) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := records.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return settings.NewSQLiteRepository(tx).Clear(ctx)
	})
}
