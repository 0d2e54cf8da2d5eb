package models

import (
	"fmt"
	"strings"

	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/sources"
)

// FactRow is one day of raw performance for one campaign as a source fetcher
// reports it. The reconciliation core only reads fact tables; these helpers
// exist for the ingestion side (the seeder) and for tests.
type FactRow struct {
	Date         string
	CampaignID   string
	CampaignName string
	Network      string
	Impressions  int64
	Clicks       int64
	Cost         float64
	Conversions  float64
}

// BatchInsertFacts appends rows to the source's fact table, writing only the
// columns that source actually has.
func BatchInsertFacts(store *db.Store, src sources.Source, rows []FactRow) error {
	if len(rows) == 0 {
		return nil
	}

	cols := []string{"date", "campaign_id", "campaign_name"}
	pick := []func(FactRow) any{
		func(r FactRow) any { return r.Date },
		func(r FactRow) any { return r.CampaignID },
		func(r FactRow) any { return r.CampaignName },
	}
	if c := src.Columns.Network; c != "" {
		cols = append(cols, c)
		pick = append(pick, func(r FactRow) any { return r.Network })
	}
	if c := src.Columns.Impressions; c != "" {
		cols = append(cols, c)
		pick = append(pick, func(r FactRow) any { return r.Impressions })
	}
	if c := src.Columns.Clicks; c != "" {
		cols = append(cols, c)
		pick = append(pick, func(r FactRow) any { return r.Clicks })
	}
	if c := src.Columns.Cost; c != "" {
		cols = append(cols, c)
		pick = append(pick, func(r FactRow) any { return r.Cost })
	}
	if c := src.Columns.Conversions; c != "" {
		cols = append(cols, c)
		pick = append(pick, func(r FactRow) any { return r.Conversions })
	}

	tx, err := store.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		src.Table,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		args := make([]any, len(pick))
		for i, f := range pick {
			args[i] = f(r)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert fact: %w", err)
		}
	}
	return tx.Commit()
}

// ReplaceFacts implements the full-table replace-on-reimport the fetchers
// use: wipe the source's table, then batch insert.
func ReplaceFacts(store *db.Store, src sources.Source, rows []FactRow) error {
	if _, err := store.Exec(fmt.Sprintf(`DELETE FROM %s`, src.Table)); err != nil {
		return fmt.Errorf("clear %s: %w", src.Table, err)
	}
	return BatchInsertFacts(store, src, rows)
}
