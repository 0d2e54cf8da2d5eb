package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/metricmind/campfuse/internal/db"
)

// Mapping links a source system's external campaign id to its canonical
// display identity. At most one row exists per (source_system,
// external_campaign_id); deletion is the is_active flag, never a DELETE.
type Mapping struct {
	ID                   int64     `json:"id"`
	SourceSystem         string    `json:"source_system"`
	ExternalCampaignID   string    `json:"external_campaign_id"`
	OriginalCampaignName string    `json:"original_campaign_name"`
	DisplayName          string    `json:"display_name"`
	Category             string    `json:"category"`
	CampaignType         string    `json:"campaign_type"`
	Network              string    `json:"network"`
	DisplayNetworkLabel  string    `json:"display_network_label"`
	DisplaySourceLabel   string    `json:"display_source_label"`
	DisplayOrder         int       `json:"display_order"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// MappingInput carries the operator-editable fields of a mapping.
// DisplayOrder is a pointer so an omitted value leaves the stored order
// untouched on update.
type MappingInput struct {
	SourceSystem         string `json:"source_system"`
	ExternalCampaignID   string `json:"external_campaign_id"`
	OriginalCampaignName string `json:"original_campaign_name"`
	DisplayName          string `json:"display_name"`
	Category             string `json:"category"`
	CampaignType         string `json:"campaign_type"`
	Network              string `json:"network"`
	DisplayNetworkLabel  string `json:"display_network_label"`
	DisplaySourceLabel   string `json:"display_source_label"`
	DisplayOrder         *int   `json:"display_order"`
}

const nowExpr = `strftime('%Y-%m-%d %H:%M:%f','now')`

// UpsertMapping inserts or updates in one conditional statement keyed on the
// unique (source_system, external_campaign_id) constraint, so two operators
// mapping the same newly-discovered campaign cannot race each other into a
// duplicate or a constraint error. The update branch refreshes the display
// fields, reactivates the row and bumps updated_at; created_at and
// display_order survive unless the order is explicitly supplied.
func UpsertMapping(store *db.Store, in MappingInput) (*Mapping, error) {
	if in.SourceSystem == "" || in.ExternalCampaignID == "" {
		return nil, fmt.Errorf("source_system and external_campaign_id are required")
	}
	if in.DisplayName == "" {
		return nil, fmt.Errorf("display_name is required")
	}
	if in.Category == "" {
		in.Category = "Uncategorized"
	}

	caps := store.Capabilities()

	cols := []string{"source_system", "external_campaign_id", "original_campaign_name", "display_name", "category", "campaign_type", "network"}
	args := []any{in.SourceSystem, in.ExternalCampaignID, in.OriginalCampaignName, in.DisplayName, in.Category, in.CampaignType, in.Network}
	sets := []string{
		"original_campaign_name = excluded.original_campaign_name",
		"display_name = excluded.display_name",
		"category = excluded.category",
		"campaign_type = excluded.campaign_type",
		"network = excluded.network",
		"is_active = 1",
		"updated_at = " + nowExpr,
	}

	if caps.HasDisplayLabels {
		cols = append(cols, "display_network_label", "display_source_label")
		args = append(args, in.DisplayNetworkLabel, in.DisplaySourceLabel)
		sets = append(sets,
			"display_network_label = excluded.display_network_label",
			"display_source_label = excluded.display_source_label")
	}
	if caps.HasDisplayOrder && in.DisplayOrder != nil {
		cols = append(cols, "display_order")
		args = append(args, *in.DisplayOrder)
		sets = append(sets, "display_order = excluded.display_order")
	}

	query := fmt.Sprintf(
		`INSERT INTO campaign_mappings (%s) VALUES (%s)
		 ON CONFLICT(source_system, external_campaign_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(sets, ", "),
	)

	if _, err := store.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("upsert mapping: %w", err)
	}
	return GetMappingByKey(store, in.SourceSystem, in.ExternalCampaignID)
}

// SoftDeleteMapping marks a mapping inactive; its fact rows reappear as
// unmapped on the next resolution pass. Deleting an already-inactive mapping
// is a no-op success; a missing id is sql.ErrNoRows.
func SoftDeleteMapping(store *db.Store, id int64) error {
	res, err := store.Exec(
		`UPDATE campaign_mappings SET is_active = 0, updated_at = `+nowExpr+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("soft delete mapping: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListMappings returns active mappings, optionally filtered to one source,
// ordered by (source_system, display_order, display_name). When the
// display_order column has not materialized the listing degrades to name
// order instead of failing.
func ListMappings(store *db.Store, source string) ([]Mapping, error) {
	caps := store.Capabilities()

	where := "is_active = 1"
	var args []any
	if source != "" {
		where += " AND source_system = ?"
		args = append(args, source)
	}

	order := "source_system, display_name"
	if caps.HasDisplayOrder {
		order = "source_system, display_order, display_name"
	}

	query := fmt.Sprintf(`SELECT %s FROM campaign_mappings WHERE %s ORDER BY %s`,
		selectColumns(caps), where, order)
	rows, err := store.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		m, err := scanMapping(rows, caps)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		mappings = append(mappings, *m)
	}
	return mappings, rows.Err()
}

// ReorderItem assigns a display order to one mapping id.
type ReorderItem struct {
	ID           int64 `json:"id"`
	DisplayOrder int   `json:"display_order"`
}

// ReorderMappings bulk-updates display_order in one transaction. If the
// display_order migration never landed the column is created on first use
// here. Any unknown id rolls the whole batch back with sql.ErrNoRows.
func ReorderMappings(store *db.Store, items []ReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	if !store.Capabilities().HasDisplayOrder {
		if err := store.EnsureColumn("campaign_mappings", "display_order", "INTEGER NOT NULL DEFAULT 0"); err != nil {
			return fmt.Errorf("create display_order column: %w", err)
		}
	}

	tx, err := store.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		res, err := tx.Exec(
			`UPDATE campaign_mappings SET display_order = ?, updated_at = `+nowExpr+` WHERE id = ?`,
			item.DisplayOrder, item.ID)
		if err != nil {
			return fmt.Errorf("reorder mapping %d: %w", item.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("reorder mapping %d: %w", item.ID, sql.ErrNoRows)
		}
	}
	return tx.Commit()
}

func GetMappingByID(store *db.Store, id int64) (*Mapping, error) {
	caps := store.Capabilities()
	row := store.QueryRow(
		fmt.Sprintf(`SELECT %s FROM campaign_mappings WHERE id = ?`, selectColumns(caps)), id)
	return scanMapping(row, caps)
}

func GetMappingByKey(store *db.Store, source, externalID string) (*Mapping, error) {
	caps := store.Capabilities()
	row := store.QueryRow(
		fmt.Sprintf(`SELECT %s FROM campaign_mappings WHERE source_system = ? AND external_campaign_id = ?`, selectColumns(caps)),
		source, externalID)
	return scanMapping(row, caps)
}

func selectColumns(caps db.Capabilities) string {
	cols := "id, source_system, external_campaign_id, original_campaign_name, display_name, category, campaign_type, network, is_active, created_at, updated_at"
	if caps.HasDisplayLabels {
		cols += ", display_network_label, display_source_label"
	}
	if caps.HasDisplayOrder {
		cols += ", display_order"
	}
	return cols
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(row scanner, caps db.Capabilities) (*Mapping, error) {
	var m Mapping
	var active int
	dest := []any{&m.ID, &m.SourceSystem, &m.ExternalCampaignID, &m.OriginalCampaignName, &m.DisplayName, &m.Category, &m.CampaignType, &m.Network, &active, &m.CreatedAt, &m.UpdatedAt}
	if caps.HasDisplayLabels {
		dest = append(dest, &m.DisplayNetworkLabel, &m.DisplaySourceLabel)
	}
	if caps.HasDisplayOrder {
		dest = append(dest, &m.DisplayOrder)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	m.IsActive = active == 1
	return &m, nil
}
