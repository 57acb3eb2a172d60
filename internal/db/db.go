package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"passenger-rights-bot/internal/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// containsIgnoreCase returns true if s contains substr (case-insensitive)
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection from the provided connection string
func New(ctx context.Context, connectionString string) (*DB, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}

	sqlDB, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ping(ctx, sqlDB); err != nil {
		// Retry with SSL disabled when the DSN does not choose a mode
		if containsIgnoreCase(connectionString, "sslmode") {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Warn(logger.Fields{"error": err.Error()}, "retrying database connection with SSL disabled")
		sqlDB.Close()
		sqlDB, err = sql.Open("postgres", withSSLDisabled(connectionString))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := ping(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return &DB{DB: sqlDB}, nil
}

func ping(ctx context.Context, sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func withSSLDisabled(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&sslmode=disable"
		}
		return dsn + "?sslmode=disable"
	}
	// key=value DSN
	return dsn + " sslmode=disable"
}

// HealthCheck verifies the database connection is healthy
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// RunMigrations applies the migrations bundled with the binary
func (db *DB) RunMigrations(ctx context.Context) error {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	return db.RunMigrationsFS(ctx, sub)
}

// RunMigrationsFS executes every numbered .sql file in fsys that has not been applied yet
func (db *DB) RunMigrationsFS(ctx context.Context, fsys fs.FS) error {
	migrations, err := ReadMigrations(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	if len(migrations) == 0 {
		logger.Info(nil, "no migrations found")
		return nil
	}

	// Ensure migration tracking table exists
	if err := db.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	for _, migration := range migrations {
		applied, err := db.isMigrationApplied(ctx, migration.Number)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		fields := logger.Fields{"version": migration.Number, "name": migration.Name}
		if applied {
			logger.Debug(fields, "migration already applied, skipping")
			continue
		}

		logger.Info(fields, "applying migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Number, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
			migration.Number,
			migration.Name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration: %w", err)
		}

		logger.Info(fields, "migration applied")
	}

	return nil
}

// Migration represents a single migration file
type Migration struct {
	Number int
	Name   string
	SQL    string
}

// ReadMigrations collects files named like "001_initial_schema.sql", ordered by number
func ReadMigrations(fsys fs.FS) ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		filename := d.Name()
		parts := strings.Split(filename, "_")
		if len(parts) < 2 {
			return nil
		}

		number, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil
		}

		sqlBytes, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		migrations = append(migrations, Migration{
			Number: number,
			Name:   strings.TrimSuffix(strings.Join(parts[1:], "_"), ".sql"),
			SQL:    string(sqlBytes),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Number < migrations[j].Number
	})

	return migrations, nil
}

// createMigrationTable creates the table that tracks which migrations have been applied
func (db *DB) createMigrationTable(ctx context.Context) error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`
	_, err := db.ExecContext(ctx, createTableSQL)
	return err
}

// isMigrationApplied checks if a migration with the given number has been applied
func (db *DB) isMigrationApplied(ctx context.Context, number int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = $1",
		number,
	).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
