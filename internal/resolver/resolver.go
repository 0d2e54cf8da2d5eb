// Package resolver surfaces fact identities that have no active mapping yet.
// Its output drives the operator triage workflow: each unmapped campaign is a
// candidate for a new (or reactivated) identity mapping.
package resolver

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/sources"
)

type UnmappedCampaign struct {
	SourceSystem       string `json:"source_system"`
	ExternalCampaignID string `json:"external_campaign_id"`
	CampaignName       string `json:"campaign_name"`
	Network            string `json:"network"`
}

// Unmapped returns, per source, the distinct fact identities with no active
// mapping. The subtraction keys on external_campaign_id only, so a campaign
// that was renamed in its source but already has a mapping is not re-flagged.
// Sources degrade in isolation: a missing or unreadable fact table
// contributes zero rows and a log line, never a failed call. Only a hard
// store outage propagates.
func Unmapped(store *db.Store, srcs []sources.Source, sourceFilter string) ([]UnmappedCampaign, error) {
	caps := store.Capabilities()

	var out []UnmappedCampaign
	for _, src := range srcs {
		if sourceFilter != "" && src.Name != sourceFilter {
			continue
		}
		if !caps.HasTable(src.Table) {
			log.Printf("resolver: fact table %s absent, skipping %s", src.Table, src.Name)
			continue
		}

		rows, err := unmappedForSource(store, src)
		if err != nil {
			if errors.Is(err, db.ErrUnavailable) {
				return nil, err
			}
			log.Printf("resolver: source %s unreadable: %v", src.Name, err)
			continue
		}
		out = append(out, rows...)
	}
	return out, nil
}

func unmappedForSource(store *db.Store, src sources.Source) ([]UnmappedCampaign, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT f.campaign_id, f.campaign_name, %s AS network
		FROM %s f
		WHERE f.campaign_id NOT IN (
			SELECT external_campaign_id FROM campaign_mappings
			WHERE source_system = ? AND is_active = 1)
		ORDER BY f.campaign_name, f.campaign_id`,
		src.NetworkExpr(), src.Table)

	rows, err := store.Query(query, src.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnmappedCampaign
	for rows.Next() {
		u := UnmappedCampaign{SourceSystem: src.Name}
		if err := rows.Scan(&u.ExternalCampaignID, &u.CampaignName, &u.Network); err != nil {
			return nil, fmt.Errorf("scan unmapped row: %w", err)
		}
		u.Network = strings.TrimSpace(u.Network)
		out = append(out, u)
	}
	return out, rows.Err()
}
