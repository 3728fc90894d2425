// Package db runs schema migrations and bridges PostgreSQL notifications
// into the running server.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/dbpool"
)

// RunMigrations brings the gallery schema up to the newest version embedded
// in fsys. It fails on the first migration that errors; the ones before it
// stay applied.
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) error {
	conn, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer conn.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, conn, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	applied, err := reportMigrations(results, log)
	if err != nil {
		return err
	}

	fields := logrus.Fields{"action": "db.migrate", "applied": applied, "embedded": SchemaVersion()}
	if applied == 0 {
		log.WithFields(fields).Debug("schema up to date")
	} else {
		log.WithFields(fields).Info("schema migrated")
	}

	return nil
}

// reportMigrations logs each result and returns how many were applied.
func reportMigrations(results []*goose.MigrationResult, log *logrus.Logger) (int, error) {
	applied := 0

	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}

		entry := log.WithFields(logrus.Fields{
			"action":  "db.migrate",
			"version": r.Source.Version,
			"file":    r.Source.Path,
		})

		if r.Error != nil {
			entry.WithError(r.Error).Error("migration failed")
			return applied, fmt.Errorf("migration %d (%s): %w", r.Source.Version, r.Source.Path, r.Error)
		}

		entry.WithField("took", r.Duration).Debug("migration applied")
		applied++
	}

	return applied, nil
}
