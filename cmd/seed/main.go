package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/models"
	"github.com/metricmind/campfuse/internal/sources"
)

type seedCampaign struct {
	source  string
	id      string
	name    string
	network string
	// weight controls relative traffic volume (higher = more clicks)
	weight float64
	// mapped campaigns get an identity mapping; the rest stay unmapped for
	// triage demos
	mapped  bool
	display string
	cat     string
}

var campaigns = []seedCampaign{
	{"google_ads", "1001", "brand_us_search_2024", "Search", 5.0, true, "Brand – US", "Brand"},
	{"google_ads", "1002", "generic_shoes_search", "Search", 4.0, true, "Generic – Shoes", "Generic"},
	{"google_ads", "1003", "display_retargeting_q3", "Display", 2.5, true, "Retargeting – Display", "Retargeting"},
	{"google_ads", "1004", "test_campaign_delete_me", "Search", 0.5, false, "", ""},
	{"bing_ads", "B-201", "brand us search", "Search", 2.0, true, "Brand – US", "Brand"},
	{"bing_ads", "B-202", "competitor conquest", "Search", 1.5, false, "", ""},
	{"affiliate", "aff-9", "SummerPartnerPush", "", 1.8, true, "Partner – Summer Push", "Affiliate"},
	{"affiliate", "aff-12", "CouponSiteFeed", "", 1.2, false, "", ""},
	{"analytics", "utm-brand", "brand_us_search_2024", "", 4.5, true, "Brand – US", "Brand"},
	{"analytics", "utm-news", "newsletter_july", "", 1.0, false, "", ""},
}

func main() {
	path := os.Getenv("CAMPFUSE_DB_PATH")
	if path == "" {
		path = "./campfuse.db"
	}

	store, err := db.OpenStore(path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	srcs := make(map[string]sources.Source)
	for _, s := range sources.Defaults() {
		srcs[s.Name] = s
	}

	rng := rand.New(rand.NewSource(42))
	days := 30
	end := time.Now().UTC().Truncate(24 * time.Hour)

	bySource := make(map[string][]models.FactRow)
	for _, c := range campaigns {
		for d := 0; d < days; d++ {
			date := end.AddDate(0, 0, -d).Format("2006-01-02")
			clicks := int64(c.weight*50 + rng.Float64()*c.weight*30)
			impressions := clicks * int64(15+rng.Intn(10))
			cost := float64(clicks) * (0.4 + rng.Float64()*0.8)
			conversions := float64(clicks) * (0.02 + rng.Float64()*0.08)

			bySource[c.source] = append(bySource[c.source], models.FactRow{
				Date:         date,
				CampaignID:   c.id,
				CampaignName: c.name,
				Network:      c.network,
				Impressions:  impressions,
				Clicks:       clicks,
				Cost:         cost,
				Conversions:  conversions,
			})
		}
	}

	for name, rows := range bySource {
		if err := models.ReplaceFacts(store, srcs[name], rows); err != nil {
			log.Fatalf("seed facts for %s: %v", name, err)
		}
		fmt.Printf("seeded %d fact rows into %s\n", len(rows), srcs[name].Table)
	}

	mapped := 0
	for _, c := range campaigns {
		if !c.mapped {
			continue
		}
		_, err := models.UpsertMapping(store, models.MappingInput{
			SourceSystem:         c.source,
			ExternalCampaignID:   c.id,
			OriginalCampaignName: c.name,
			DisplayName:          c.display,
			Category:             c.cat,
			Network:              c.network,
		})
		if err != nil {
			log.Fatalf("seed mapping %s/%s: %v", c.source, c.id, err)
		}
		mapped++
	}
	fmt.Printf("seeded %d identity mappings\n", mapped)
}
