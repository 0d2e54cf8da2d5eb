// Package report projects every source's fact schema into one unified metric
// shape and rolls it up by arbitrary dimension sets. Derived ratios are
// always computed from base metrics with zero-denominator guards, and
// aggregation re-derives them from summed numerators and denominators —
// averaging per-row ratios across different denominators would blend rates
// incorrectly.
package report

import (
	"errors"
	"fmt"
	"log"

	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/sources"
)

// UnifiedRow is one fact row joined with its (possibly absent) mapping,
// normalized into the fixed cross-source schema. Metrics a source lacks are
// zero, never null.
type UnifiedRow struct {
	Platform             string  `json:"platform"`
	Network              string  `json:"network"`
	Date                 string  `json:"date"`
	ExternalCampaignID   string  `json:"external_campaign_id"`
	DisplayName          string  `json:"display_name"`
	OriginalCampaignName string  `json:"original_campaign_name"`
	Category             string  `json:"category"`
	CampaignType         string  `json:"campaign_type"`
	Impressions          int64   `json:"impressions"`
	Clicks               int64   `json:"clicks"`
	Cost                 float64 `json:"cost"`
	Conversions          float64 `json:"conversions"`
	CTR                  float64 `json:"ctr"`
	ConversionRate       float64 `json:"conversion_rate"`
	CostPerConversion    float64 `json:"cost_per_conversion"`
}

// Unify left-joins each source's fact table against the active mappings for
// the date range (inclusive, YYYY-MM-DD) and concatenates the results in
// source order. Rows without an active mapping fall back to the raw campaign
// name, category "Uncategorized" and network "Unknown". A missing or
// unreadable fact table drops that source from the result with a log line;
// only a hard store outage fails the call.
func Unify(store *db.Store, srcs []sources.Source, start, end string) ([]UnifiedRow, error) {
	caps := store.Capabilities()

	var out []UnifiedRow
	for _, src := range srcs {
		if !caps.HasTable(src.Table) {
			log.Printf("unify: fact table %s absent, skipping %s", src.Table, src.Name)
			continue
		}
		rows, err := unifySource(store, caps, src, start, end)
		if err != nil {
			if errors.Is(err, db.ErrUnavailable) {
				return nil, err
			}
			log.Printf("unify: source %s unreadable: %v", src.Name, err)
			continue
		}
		out = append(out, rows...)
	}
	return out, nil
}

func unifySource(store *db.Store, caps db.Capabilities, src sources.Source, start, end string) ([]UnifiedRow, error) {
	platformExpr := "'" + src.Platform + "'"
	networkExpr := fmt.Sprintf(`COALESCE(NULLIF(m.network, ''), %s)`, src.NetworkExpr())
	if caps.HasDisplayLabels {
		platformExpr = fmt.Sprintf(`COALESCE(NULLIF(m.display_source_label, ''), %s)`, platformExpr)
		networkExpr = fmt.Sprintf(`COALESCE(NULLIF(m.display_network_label, ''), %s)`, networkExpr)
	}

	query := fmt.Sprintf(`
		SELECT %s AS platform,
		       %s AS network,
		       f.date,
		       f.campaign_id,
		       COALESCE(m.display_name, f.campaign_name) AS display_name,
		       f.campaign_name,
		       COALESCE(m.category, 'Uncategorized') AS category,
		       COALESCE(m.campaign_type, '') AS campaign_type,
		       %s, %s, %s, %s
		FROM %s f
		LEFT JOIN campaign_mappings m
		  ON m.source_system = ? AND m.external_campaign_id = f.campaign_id AND m.is_active = 1
		WHERE f.date >= ? AND f.date <= ?
		ORDER BY f.date, f.campaign_id`,
		platformExpr, networkExpr,
		sources.MetricExpr(src.Columns.Impressions),
		sources.MetricExpr(src.Columns.Clicks),
		sources.MetricExpr(src.Columns.Cost),
		sources.MetricExpr(src.Columns.Conversions),
		src.Table)

	rows, err := store.Query(query, src.Name, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnifiedRow
	for rows.Next() {
		var r UnifiedRow
		if err := rows.Scan(&r.Platform, &r.Network, &r.Date, &r.ExternalCampaignID,
			&r.DisplayName, &r.OriginalCampaignName, &r.Category, &r.CampaignType,
			&r.Impressions, &r.Clicks, &r.Cost, &r.Conversions); err != nil {
			return nil, fmt.Errorf("scan unified row: %w", err)
		}
		r.CTR = ratio(float64(r.Clicks), float64(r.Impressions))
		r.ConversionRate = ratio(float64(r.Conversions), float64(r.Clicks))
		r.CostPerConversion = ratio(r.Cost, r.Conversions)
		out = append(out, r)
	}
	return out, rows.Err()
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
