package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// Migration is one additive schema change. Run executes inside a transaction
// that also records the ledger row, so a change and its bookkeeping commit as
// a unit. Every migration must be re-runnable: losing a race to a concurrent
// replica is success, not failure.
type Migration struct {
	Name string
	Run  func(tx *sql.Tx) error
}

// Result reports one schema evolution pass.
type Result struct {
	Applied []string `json:"applied"`
	Failed  []string `json:"failed"`
}

const ledgerDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT    NOT NULL UNIQUE,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Migrate applies every pending migration in order. A failing migration is
// logged, reported in Result.Failed and skipped, so one bad statement does
// not keep the rest of the schema from converging; the dependent feature
// degrades instead. Only ledger access errors abort the run.
func Migrate(db *sql.DB) (Result, error) {
	return runMigrations(db, migrations)
}

func runMigrations(db *sql.DB, set []Migration) (Result, error) {
	var res Result

	// CREATE TABLE IF NOT EXISTS is atomic, so two replicas booting at the
	// same time can both run this without an existence-check race.
	if _, err := db.Exec(ledgerDDL); err != nil {
		return res, fmt.Errorf("bootstrap migration ledger: %w", err)
	}

	applied, err := appliedSet(db)
	if err != nil {
		return res, fmt.Errorf("read migration ledger: %w", err)
	}

	for _, m := range set {
		if applied[m.Name] {
			continue
		}
		if err := applyOne(db, m); err != nil {
			log.Printf("migration %s failed: %v", m.Name, err)
			res.Failed = append(res.Failed, m.Name)
			continue
		}
		res.Applied = append(res.Applied, m.Name)
	}
	return res, nil
}

func appliedSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyOne(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := m.Run(tx); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
		tx.Rollback()
		// A concurrent replica recorded it first; the schema change itself
		// is re-runnable, so losing the race is success.
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

func execAll(tx *sql.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// addColumn probes for the column before altering, because SQLite has no
// ADD COLUMN IF NOT EXISTS and a concurrent replica may have added it
// between the probe and the alter; that race also counts as success.
func addColumn(tx *sql.Tx, table, column, decl string) error {
	exists, err := txColumnExists(tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	if err != nil && isDuplicateColumn(err) {
		return nil
	}
	return err
}

func txColumnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid          int
			name, typ    string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
