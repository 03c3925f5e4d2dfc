package doctor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/data/stores"
)

// RecoverFunc replaces a corrupt database with an empty one and returns
// where the damaged file was moved.
type RecoverFunc func(ctx context.Context) (string, error)

// DatabaseCheck verifies the schema version and the integrity of the
// SQLite file. With autofix it applies pending migrations and replaces a
// corrupt file through recoverDB.
type DatabaseCheck struct {
	conn      *sql.DB
	autofix   bool
	recoverDB RecoverFunc
}

// NewDatabaseCheck creates a new database check. recoverDB may be nil, in
// which case corruption is reported but not fixable.
func NewDatabaseCheck(conn *sql.DB, autofix bool, recoverDB RecoverFunc) *DatabaseCheck {
	return &DatabaseCheck{conn: conn, autofix: autofix, recoverDB: recoverDB}
}

func (c *DatabaseCheck) Name() string {
	return "Database"
}

func (c *DatabaseCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if !c.checkIntegrity(ctx, &result) {
		return result
	}
	c.checkMigrations(ctx, &result)

	var lists, items int
	err := c.conn.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM lists), (SELECT COUNT(*) FROM tasks)",
	).Scan(&lists, &items)
	if err != nil {
		result.add("contents", StatusFail, err.Error())
		return result
	}
	result.add("contents", StatusPass, fmt.Sprintf("%d lists, %d tasks", lists, items))

	return result
}

// checkIntegrity reports false when the rest of the checks cannot run on
// c.conn, either because the file is damaged or because it was replaced.
func (c *DatabaseCheck) checkIntegrity(ctx context.Context, result *Result) bool {
	var integrity string
	err := c.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity)
	switch {
	case err == nil && integrity == "ok":
		result.add("integrity", StatusPass, "")
		return true
	case err != nil && !stores.IsCorruptionError(err):
		result.add("integrity", StatusFail, err.Error())
		return false
	}

	detail := integrity
	if err != nil {
		detail = err.Error()
	}
	if c.recoverDB == nil {
		result.add("integrity", StatusFail, detail)
		return false
	}
	if !c.autofix {
		result.addFixable("integrity", StatusFail, detail)
		return false
	}

	backup, err := c.recoverDB(ctx)
	if err != nil {
		result.addFixable("integrity", StatusFail, fmt.Sprintf("recovery failed: %v", err))
		return false
	}
	log.Warn().Str("backup", backup).Msg("replaced corrupt database")
	result.add("integrity", StatusPass, "recreated; damaged file kept at "+backup)
	return false
}

func (c *DatabaseCheck) checkMigrations(ctx context.Context, result *Result) {
	status, err := db.Status(ctx, c.conn)
	if err != nil {
		result.add("migrations", StatusFail, err.Error())
		return
	}

	pending := 0
	for _, m := range status {
		if !m.Applied {
			pending++
		}
	}

	switch {
	case pending == 0:
		result.add("migrations", StatusPass, fmt.Sprintf("%d applied", len(status)))
	case !c.autofix:
		result.addFixable("migrations", StatusWarn, fmt.Sprintf("%d of %d pending", pending, len(status)))
	default:
		if err := db.MigrateUp(ctx, c.conn, log.Logger); err != nil {
			result.addFixable("migrations", StatusFail, err.Error())
			return
		}
		result.add("migrations", StatusPass, fmt.Sprintf("applied %d pending", pending))
	}
}
