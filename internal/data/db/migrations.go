package db

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// Migration is one schema version with the SQL to apply and revert it.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationStatus reports whether a migration is applied.
type MigrationStatus struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// parseFilename splits "NNNN_name.up.sql" into its version, name and
// direction.
func parseFilename(filename string) (int, string, string, error) {
	m := migrationFile.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", "", fmt.Errorf("expected NNNN_name.{up,down}.sql, got %q", filename)
	}

	version, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q: %w", m[1], err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}
	return version, m[2], m[3], nil
}

// loadMigrations reads the embedded SQL files sorted by version. Every
// version needs exactly one up and one down file.
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, direction, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", entry.Name(), err)
		}
		body, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}

		dst := &m.UpSQL
		if direction == "down" {
			dst = &m.DownSQL
		}
		if *dst != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %04d", direction, version)
		}
		*dst = string(body)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %04d needs both an up and a down file", m.Version)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// migrator applies the embedded migrations to one connection and tracks
// them in schema_migrations.
type migrator struct {
	conn       *sql.DB
	log        zerolog.Logger
	migrations []Migration
	applied    map[int]bool
}

func newMigrator(ctx context.Context, conn *sql.DB, log zerolog.Logger) (*migrator, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &migrator{conn: conn, log: log, migrations: migrations, applied: applied}, nil
}

func appliedVersions(ctx context.Context, conn *sql.DB) (map[int]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// step runs one migration in a single transaction together with its
// schema_migrations bookkeeping.
func (mg *migrator) step(ctx context.Context, m Migration, up bool) error {
	tx, err := mg.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	script, record, args := m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", []any{m.Version}
	if up {
		script = m.UpSQL
		record = "INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"
		args = []any{m.Version, m.Name, time.Now().UnixNano()}
	}

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	mg.applied[m.Version] = up
	return nil
}

func (mg *migrator) up(ctx context.Context) error {
	for _, m := range mg.migrations {
		if mg.applied[m.Version] {
			continue
		}
		mg.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := mg.step(ctx, m, true); err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func (mg *migrator) down(ctx context.Context, n int) error {
	var applied []Migration
	for _, m := range slices.Backward(mg.migrations) {
		if mg.applied[m.Version] {
			applied = append(applied, m)
		}
	}
	if n > len(applied) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(applied))
	}

	for _, m := range applied[:n] {
		mg.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		if err := mg.step(ctx, m, false); err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateUp applies every pending migration in version order.
func MigrateUp(ctx context.Context, conn *sql.DB, log zerolog.Logger) error {
	mg, err := newMigrator(ctx, conn, log)
	if err != nil {
		return err
	}
	return mg.up(ctx)
}

// MigrateDown reverts the newest n applied migrations.
func MigrateDown(ctx context.Context, conn *sql.DB, log zerolog.Logger, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}
	mg, err := newMigrator(ctx, conn, log)
	if err != nil {
		return err
	}
	return mg.down(ctx, n)
}

// Status lists every embedded migration and whether it is applied.
func Status(ctx context.Context, conn *sql.DB) ([]MigrationStatus, error) {
	mg, err := newMigrator(ctx, conn, zerolog.Nop())
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(mg.migrations))
	for i, m := range mg.migrations {
		out[i] = MigrationStatus{Version: m.Version, Name: m.Name, Applied: mg.applied[m.Version]}
	}
	return out, nil
}
