package db

import (
	"database/sql"
	"fmt"
)

// Capabilities is a point-in-time snapshot of the optional parts of the
// schema. It is taken at startup and after each schema evolution run, so a
// replica whose migrations partially failed still knows exactly which
// features it can serve.
type Capabilities struct {
	HasDisplayOrder  bool
	HasDisplayLabels bool

	tables map[string]bool
}

// HasTable reports whether the named table existed when the snapshot was
// taken. Fact tables for sources that have never ingested are simply absent.
func (c Capabilities) HasTable(name string) bool {
	return c.tables[name]
}

// Capabilities returns the current snapshot.
func (s *Store) Capabilities() Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// Refresh re-probes the schema and replaces the snapshot.
func (s *Store) Refresh() error {
	tables, err := tableSet(s.DB)
	if err != nil {
		return fmt.Errorf("probe tables: %w", err)
	}

	caps := Capabilities{tables: tables}
	if tables["campaign_mappings"] {
		caps.HasDisplayOrder, err = columnExists(s.DB, "campaign_mappings", "display_order")
		if err != nil {
			return fmt.Errorf("probe display_order: %w", err)
		}
		caps.HasDisplayLabels, err = columnExists(s.DB, "campaign_mappings", "display_network_label")
		if err != nil {
			return fmt.Errorf("probe display labels: %w", err)
		}
	}

	s.mu.Lock()
	s.caps = caps
	s.mu.Unlock()
	return nil
}

// EnsureColumn adds a column outside the migration flow, for features that
// self-heal when their migration was skipped. Losing the add race to another
// replica is success. The snapshot is refreshed on success.
func (s *Store) EnsureColumn(table, column, decl string) error {
	exists, err := columnExists(s.DB, table, column)
	if err != nil {
		return err
	}
	if !exists {
		_, err = s.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
		if err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("add column %s.%s: %w", table, column, err)
		}
	}
	return s.Refresh()
}

func tableSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables[name] = true
	}
	return tables, rows.Err()
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
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
