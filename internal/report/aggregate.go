package report

import (
	"fmt"
	"sort"
	"strings"
)

// Dimension is one grouping axis for aggregation.
type Dimension string

const (
	DimPlatform     Dimension = "platform"
	DimNetwork      Dimension = "network"
	DimDate         Dimension = "date"
	DimCampaign     Dimension = "external_campaign_id"
	DimDisplayName  Dimension = "display_name"
	DimCategory     Dimension = "category"
	DimCampaignType Dimension = "campaign_type"
)

// DefaultDimensions is the full per-campaign-per-day grouping.
func DefaultDimensions() []Dimension {
	return []Dimension{DimPlatform, DimNetwork, DimCampaign, DimDisplayName, DimCategory, DimCampaignType, DimDate}
}

// ParseDimensions parses a comma-separated dimension list; empty input means
// the default set.
func ParseDimensions(s string) ([]Dimension, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultDimensions(), nil
	}
	valid := map[Dimension]bool{
		DimPlatform: true, DimNetwork: true, DimDate: true, DimCampaign: true,
		DimDisplayName: true, DimCategory: true, DimCampaignType: true,
	}
	var dims []Dimension
	for _, part := range strings.Split(s, ",") {
		d := Dimension(strings.TrimSpace(part))
		if !valid[d] {
			return nil, fmt.Errorf("unknown dimension %q", d)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// AggregatedRow is a group of unified rows summed by dimension. Identity
// fields outside the grouping set are empty. Ratios are recomputed from the
// summed base metrics, never averaged from per-row ratios.
type AggregatedRow struct {
	Platform           string  `json:"platform,omitempty"`
	Network            string  `json:"network,omitempty"`
	Date               string  `json:"date,omitempty"`
	ExternalCampaignID string  `json:"external_campaign_id,omitempty"`
	DisplayName        string  `json:"display_name,omitempty"`
	Category           string  `json:"category,omitempty"`
	CampaignType       string  `json:"campaign_type,omitempty"`
	Impressions        int64   `json:"impressions"`
	Clicks             int64   `json:"clicks"`
	Cost               float64 `json:"cost"`
	Conversions        float64 `json:"conversions"`
	CTR                float64 `json:"ctr"`
	ConversionRate     float64 `json:"conversion_rate"`
	CostPerConversion  float64 `json:"cost_per_conversion"`
}

// Filter narrows the unified rows before grouping.
type Filter struct {
	Platform string
	Network  string
}

// Aggregate groups unified rows by the given dimensions, applying the filter
// first. The result is ordered by descending cost, with the group key as a
// stable tie-break.
func Aggregate(rows []UnifiedRow, dims []Dimension, filter Filter) []AggregatedRow {
	if len(dims) == 0 {
		dims = DefaultDimensions()
	}

	type group struct {
		row AggregatedRow
		key string
	}
	groups := make(map[string]*group)
	var order []string

	for _, r := range rows {
		if filter.Platform != "" && r.Platform != filter.Platform {
			continue
		}
		if filter.Network != "" && r.Network != filter.Network {
			continue
		}

		parts := make([]string, len(dims))
		for i, d := range dims {
			parts[i] = dimValue(r, d)
		}
		key := strings.Join(parts, "\x1f")

		g, ok := groups[key]
		if !ok {
			g = &group{key: key}
			for _, d := range dims {
				setDim(&g.row, d, dimValue(r, d))
			}
			groups[key] = g
			order = append(order, key)
		}
		g.row.Impressions += r.Impressions
		g.row.Clicks += r.Clicks
		g.row.Cost += r.Cost
		g.row.Conversions += r.Conversions
	}

	out := make([]AggregatedRow, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		g.row.CTR = ratio(float64(g.row.Clicks), float64(g.row.Impressions))
		g.row.ConversionRate = ratio(g.row.Conversions, float64(g.row.Clicks))
		g.row.CostPerConversion = ratio(g.row.Cost, g.row.Conversions)
		out = append(out, g.row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		return groupKey(out[i], dims) < groupKey(out[j], dims)
	})
	return out
}

func groupKey(r AggregatedRow, dims []Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = aggDimValue(r, d)
	}
	return strings.Join(parts, "\x1f")
}

func dimValue(r UnifiedRow, d Dimension) string {
	switch d {
	case DimPlatform:
		return r.Platform
	case DimNetwork:
		return r.Network
	case DimDate:
		return r.Date
	case DimCampaign:
		return r.ExternalCampaignID
	case DimDisplayName:
		return r.DisplayName
	case DimCategory:
		return r.Category
	case DimCampaignType:
		return r.CampaignType
	}
	return ""
}

func aggDimValue(r AggregatedRow, d Dimension) string {
	switch d {
	case DimPlatform:
		return r.Platform
	case DimNetwork:
		return r.Network
	case DimDate:
		return r.Date
	case DimCampaign:
		return r.ExternalCampaignID
	case DimDisplayName:
		return r.DisplayName
	case DimCategory:
		return r.Category
	case DimCampaignType:
		return r.CampaignType
	}
	return ""
}

func setDim(r *AggregatedRow, d Dimension, v string) {
	switch d {
	case DimPlatform:
		r.Platform = v
	case DimNetwork:
		r.Network = v
	case DimDate:
		r.Date = v
	case DimCampaign:
		r.ExternalCampaignID = v
	case DimDisplayName:
		r.DisplayName = v
	case DimCategory:
		r.Category = v
	case DimCampaignType:
		r.CampaignType = v
	}
}
