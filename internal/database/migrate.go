package database

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator handles database migrations
type Migrator struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewMigrator(pool *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{pool: pool, logger: logger.With().Str("component", "migrator").Logger()}
}

// upMigrations returns the embedded up migrations in version order
func upMigrations() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// migrationVersion extracts "001" from "001_create_users.up.sql"
func migrationVersion(file string) string {
	return strings.SplitN(file, "_", 2)[0]
}

// Up runs all pending migrations
func (m *Migrator) Up(ctx context.Context) error {
	// Create migrations table if it doesn't exist
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := upMigrations()
	if err != nil {
		return err
	}

	for _, migrationFile := range files {
		version := migrationVersion(migrationFile)

		applied, err := m.isMigrationApplied(ctx, version)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if applied {
			m.logger.Debug().Str("file", migrationFile).Msg("migration already applied")
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + migrationFile)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", migrationFile, err)
		}

		m.logger.Info().Str("file", migrationFile).Msg("applying migration")
		if _, err := m.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migrationFile, err)
		}

		if err := m.recordMigration(ctx, version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migrationFile, err)
		}

	}

	m.logger.Info().Int("count", len(files)).Msg("migrations up to date")
	return nil
}

// Down rolls back the last migration
func (m *Migrator) Down(ctx context.Context) error {
	var version string
	err := m.pool.QueryRow(ctx, `
		SELECT version FROM schema_migrations
		ORDER BY version DESC
		LIMIT 1
	`).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var downFile string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), version+"_") && strings.HasSuffix(entry.Name(), ".down.sql") {
			downFile = entry.Name()
			break
		}
	}

	if downFile == "" {
		return fmt.Errorf("down migration file not found for version %s", version)
	}

	content, err := migrationsFS.ReadFile("migrations/" + downFile)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", downFile, err)
	}

	m.logger.Info().Str("file", downFile).Msg("rolling back migration")
	if _, err := m.pool.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", downFile, err)
	}

	if _, err := m.pool.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return nil
}

// createMigrationsTable creates the schema_migrations table
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW() NOT NULL
		)
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

// isMigrationApplied checks if a migration has been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var count int
	err := m.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records that a migration has been applied
func (m *Migrator) recordMigration(ctx context.Context, version string) error {
	_, err := m.pool.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
	return err
}
