// Package sources describes the per-source fact tables: which table each
// source writes, and which of its columns carry the four base metrics. The
// unifier and resolver are driven entirely by these descriptors, so adding a
// source is a config change plus a fact table.
package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Source struct {
	// Name is the source_system key used in campaign_mappings.
	Name string `yaml:"name"`
	// Platform is the human-facing label, e.g. "Google Ads".
	Platform string `yaml:"platform"`
	// Table is the fact table owned by this source's fetcher.
	Table   string  `yaml:"table"`
	Columns Columns `yaml:"columns"`
}

// Columns names the fact-table columns backing each base metric. An empty
// name means the source has no such concept and contributes a constant zero,
// so every source still unifies into the same fixed schema.
type Columns struct {
	Network     string `yaml:"network"`
	Impressions string `yaml:"impressions"`
	Clicks      string `yaml:"clicks"`
	Cost        string `yaml:"cost"`
	Conversions string `yaml:"conversions"`
}

// Defaults returns the built-in source set.
func Defaults() []Source {
	return []Source{
		{
			Name:     "google_ads",
			Platform: "Google Ads",
			Table:    "facts_google_ads",
			Columns: Columns{
				Network:     "network",
				Impressions: "impressions",
				Clicks:      "clicks",
				Cost:        "cost",
				Conversions: "conversions",
			},
		},
		{
			Name:     "bing_ads",
			Platform: "Microsoft Ads",
			Table:    "facts_bing_ads",
			Columns: Columns{
				Network:     "network",
				Impressions: "impressions",
				Clicks:      "clicks",
				Cost:        "cost",
				Conversions: "conversions",
			},
		},
		{
			// The affiliate tracker reports no impressions; impressions and
			// CTR are fixed at zero for it.
			Name:     "affiliate",
			Platform: "Affiliate",
			Table:    "facts_affiliate",
			Columns: Columns{
				Clicks:      "clicks",
				Cost:        "cost",
				Conversions: "conversions",
			},
		},
		{
			Name:     "analytics",
			Platform: "Web Analytics",
			Table:    "facts_analytics",
			Columns: Columns{
				Clicks:      "visits",
				Conversions: "conversions",
			},
		},
	}
}

// Load reads a source set from a YAML file, or returns Defaults when path is
// empty.
func Load(path string) ([]Source, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var srcs []Source
	if err := yaml.Unmarshal(data, &srcs); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if err := validate(srcs); err != nil {
		return nil, err
	}
	return srcs, nil
}

func validate(srcs []Source) error {
	if len(srcs) == 0 {
		return fmt.Errorf("sources file defines no sources")
	}
	seen := make(map[string]bool, len(srcs))
	for _, s := range srcs {
		if s.Name == "" || s.Platform == "" || s.Table == "" {
			return fmt.Errorf("source %q: name, platform and table are required", s.Name)
		}
		if s.Columns.Clicks == "" || s.Columns.Conversions == "" {
			return fmt.Errorf("source %q: clicks and conversions columns are required", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// NetworkExpr is the SQL expression for the source's network dimension,
// falling back to the Unknown placeholder for sources without one. The f
// alias refers to the fact table.
func (s Source) NetworkExpr() string {
	if s.Columns.Network != "" {
		return "f." + s.Columns.Network
	}
	return "'Unknown'"
}

// MetricExpr is the SQL expression for a metric column, zero when the source
// has no such metric.
func MetricExpr(column string) string {
	if column == "" {
		return "0"
	}
	return "f." + column
}
