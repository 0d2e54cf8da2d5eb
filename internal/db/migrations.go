package db

import "database/sql"

// The migration set, applied in lexical name order. Additive changes only:
// new tables and new columns, never a destructive rewrite.
var migrations = []Migration{
	{
		Name: "001_campaign_mappings",
		Run: func(tx *sql.Tx) error {
			return execAll(tx, `
CREATE TABLE IF NOT EXISTS campaign_mappings (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    source_system          TEXT    NOT NULL,
    external_campaign_id   TEXT    NOT NULL,
    original_campaign_name TEXT    NOT NULL DEFAULT '',
    display_name           TEXT    NOT NULL,
    category               TEXT    NOT NULL DEFAULT 'Uncategorized',
    campaign_type          TEXT    NOT NULL DEFAULT '',
    network                TEXT    NOT NULL DEFAULT '',
    is_active              INTEGER NOT NULL DEFAULT 1,
    created_at             DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    updated_at             DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    UNIQUE(source_system, external_campaign_id)
);`, `
CREATE INDEX IF NOT EXISTS idx_mappings_source ON campaign_mappings(source_system) WHERE is_active = 1;`)
		},
	},
	{
		Name: "002_fact_tables",
		Run: func(tx *sql.Tx) error {
			return execAll(tx, `
CREATE TABLE IF NOT EXISTS facts_google_ads (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    date          TEXT    NOT NULL,
    campaign_id   TEXT    NOT NULL,
    campaign_name TEXT    NOT NULL DEFAULT '',
    network       TEXT    NOT NULL DEFAULT '',
    impressions   INTEGER NOT NULL DEFAULT 0,
    clicks        INTEGER NOT NULL DEFAULT 0,
    cost          REAL    NOT NULL DEFAULT 0,
    conversions   REAL    NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS facts_bing_ads (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    date          TEXT    NOT NULL,
    campaign_id   TEXT    NOT NULL,
    campaign_name TEXT    NOT NULL DEFAULT '',
    network       TEXT    NOT NULL DEFAULT '',
    impressions   INTEGER NOT NULL DEFAULT 0,
    clicks        INTEGER NOT NULL DEFAULT 0,
    cost          REAL    NOT NULL DEFAULT 0,
    conversions   REAL    NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS facts_affiliate (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    date          TEXT    NOT NULL,
    campaign_id   TEXT    NOT NULL,
    campaign_name TEXT    NOT NULL DEFAULT '',
    clicks        INTEGER NOT NULL DEFAULT 0,
    cost          REAL    NOT NULL DEFAULT 0,
    conversions   REAL    NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS facts_analytics (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    date          TEXT    NOT NULL,
    campaign_id   TEXT    NOT NULL,
    campaign_name TEXT    NOT NULL DEFAULT '',
    visits        INTEGER NOT NULL DEFAULT 0,
    conversions   REAL    NOT NULL DEFAULT 0
);`)
		},
	},
	{
		Name: "003_mapping_display_order",
		Run: func(tx *sql.Tx) error {
			return addColumn(tx, "campaign_mappings", "display_order", "INTEGER NOT NULL DEFAULT 0")
		},
	},
	{
		Name: "004_mapping_display_labels",
		Run: func(tx *sql.Tx) error {
			if err := addColumn(tx, "campaign_mappings", "display_network_label", "TEXT NOT NULL DEFAULT ''"); err != nil {
				return err
			}
			return addColumn(tx, "campaign_mappings", "display_source_label", "TEXT NOT NULL DEFAULT ''")
		},
	},
	{
		Name: "005_fact_indexes",
		Run: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_google_ads_date ON facts_google_ads(date);`,
				`CREATE INDEX IF NOT EXISTS idx_bing_ads_date ON facts_bing_ads(date);`,
				`CREATE INDEX IF NOT EXISTS idx_affiliate_date ON facts_affiliate(date);`,
				`CREATE INDEX IF NOT EXISTS idx_analytics_date ON facts_analytics(date);`,
			)
		},
	},
}
