package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// Migration is one numbered schema change, loaded from NNN_name.sql
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies pending migrations and records them in schema_migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// RunMigrations applies every pending .sql file found in fsys, in version order.
// Returns the number of migrations applied.
func (m *Migrator) RunMigrations(fsys fs.FS) (int, error) {
	all, err := LoadMigrations(fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := m.db.Exec(schemaMigrationsDDL); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	done, err := m.appliedVersions()
	if err != nil {
		return 0, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	todo := pending(all, done)
	m.logger.Info("Running database migrations",
		zap.Int("known", len(all)),
		zap.Int("pending", len(todo)))

	for i, migration := range todo {
		m.logger.Info("Applying migration",
			zap.Int("version", migration.Version),
			zap.String("name", migration.Name))

		if err := m.apply(migration); err != nil {
			return i, fmt.Errorf("migration %03d_%s: %w", migration.Version, migration.Name, err)
		}
	}

	return len(todo), nil
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		done[version] = true
	}
	return done, rows.Err()
}

// pending keeps the migrations whose version is not in done, preserving order
func pending(all []Migration, done map[int]bool) []Migration {
	var out []Migration
	for _, migration := range all {
		if !done[migration.Version] {
			out = append(out, migration)
		}
	}
	return out
}

func (m *Migrator) apply(migration Migration) error {
	record := m.db.Dialect.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)")
	return m.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.SQL); err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		if _, err := tx.Exec(record, migration.Version, migration.Name); err != nil {
			return fmt.Errorf("record: %w", err)
		}
		return nil
	})
}

// LoadMigrations reads and sorts every NNN_name.sql file in fsys
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	var migrations []Migration
	files := make(map[int]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".sql" {
			return err
		}

		filename := path.Base(p)
		version, name, err := parseMigrationName(filename)
		if err != nil {
			return err
		}
		if other, dup := files[version]; dup {
			return fmt.Errorf("duplicate migration version %d: %s and %s", version, other, filename)
		}
		files[version] = filename

		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseMigrationName splits "001_invoices.sql" into (1, "invoices")
func parseMigrationName(filename string) (int, string, error) {
	stem := strings.TrimSuffix(filename, ".sql")
	prefix, name, _ := strings.Cut(stem, "_")
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("invalid migration filename format: %s", filename)
	}
	return version, name, nil
}
