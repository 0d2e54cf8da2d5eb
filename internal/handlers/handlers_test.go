package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metricmind/campfuse/internal/cache"
	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/models"
	"github.com/metricmind/campfuse/internal/report"
	"github.com/metricmind/campfuse/internal/resolver"
	"github.com/metricmind/campfuse/internal/sources"
)

const testKey = "secret"

func testServer(t *testing.T) (*httptest.Server, *db.Store) {
	t.Helper()
	store, err := db.OpenStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	srcs := sources.Defaults()
	reportCache := cache.New(16, time.Minute)
	mh := &MappingHandler{Store: store, Sources: srcs, Cache: reportCache}
	rh := &ReportHandler{Store: store, Sources: srcs, Cache: reportCache}
	sh := &SchemaHandler{Store: store}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(testKey))
		r.Get("/unmapped", mh.Unmapped)
		r.Get("/mappings", mh.List)
		r.Post("/mappings", mh.Upsert)
		r.Delete("/mappings/{id}", mh.Delete)
		r.Post("/mappings/reorder", mh.Reorder)
		r.Get("/metrics/unified", rh.Unified)
		r.Get("/metrics/aggregated", rh.Aggregated)
		r.Post("/schema/evolve", sh.Evolve)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func seedGoogleFact(t *testing.T, store *db.Store) {
	t.Helper()
	var google sources.Source
	for _, s := range sources.Defaults() {
		if s.Name == "google_ads" {
			google = s
		}
	}
	err := models.BatchInsertFacts(store, google, []models.FactRow{
		{Date: "2025-03-10", CampaignID: "123", CampaignName: "Brand Campaign", Network: "Search",
			Impressions: 1000, Clicks: 50, Cost: 100, Conversions: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAuthMiddleware_RejectsMissingKey(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/mappings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestUpsertThenList(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/mappings", map[string]any{
		"source_system":        "google_ads",
		"external_campaign_id": "123",
		"display_name":         "Brand – US",
		"category":             "Brand",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert status = %d, want 200", resp.StatusCode)
	}
	var created models.Mapping
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID <= 0 || created.DisplayName != "Brand – US" {
		t.Errorf("created = %+v", created)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/mappings?source=google_ads", nil)
	var list []models.Mapping
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestUpsert_Validation(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/mappings", map[string]any{
		"source_system": "google_ads",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDelete_NotFoundAndRoundTrip(t *testing.T) {
	srv, store := testServer(t)
	seedGoogleFact(t, store)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/mappings/99999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/mappings", map[string]any{
		"source_system":        "google_ads",
		"external_campaign_id": "123",
		"display_name":         "Brand – US",
	})
	var m models.Mapping
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/mappings/%d", srv.URL, m.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	// The identity reappears for triage.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/unmapped", nil)
	var unmapped []resolver.UnmappedCampaign
	if err := json.NewDecoder(resp.Body).Decode(&unmapped); err != nil {
		t.Fatal(err)
	}
	if len(unmapped) != 1 || unmapped[0].ExternalCampaignID != "123" {
		t.Errorf("unmapped = %+v", unmapped)
	}
}

func TestReorderEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var ids []int64
	for i, name := range []string{"A", "B"} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/mappings", map[string]any{
			"source_system":        "google_ads",
			"external_campaign_id": fmt.Sprintf("c-%d", i),
			"display_name":         name,
		})
		var m models.Mapping
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/mappings/reorder", []map[string]any{
		{"id": ids[0], "display_order": 2},
		{"id": ids[1], "display_order": 1},
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("reorder status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/mappings", nil)
	var list []models.Mapping
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list[0].ID != ids[1] {
		t.Errorf("first listed = %d, want %d", list[0].ID, ids[1])
	}
}

func TestUnifiedEndpoint_ValidatesDates(t *testing.T) {
	srv, _ := testServer(t)

	for _, q := range []string{"", "?start=2025-03-10", "?start=bogus&end=2025-03-10", "?start=2025-03-11&end=2025-03-10"} {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/metrics/unified"+q, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestAggregatedEndpoint(t *testing.T) {
	srv, store := testServer(t)
	seedGoogleFact(t, store)

	url := srv.URL + "/api/metrics/aggregated?start=2025-03-01&end=2025-03-31&platform=Google%20Ads"
	resp := doJSON(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var agg []report.AggregatedRow
	if err := json.NewDecoder(resp.Body).Decode(&agg); err != nil {
		t.Fatal(err)
	}
	if len(agg) != 1 {
		t.Fatalf("got %d rows, want 1", len(agg))
	}
	if agg[0].Clicks != 50 || agg[0].CTR != 0.05 {
		t.Errorf("aggregated = %+v", agg[0])
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/metrics/aggregated?start=2025-03-01&end=2025-03-31&group_by=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad group_by status = %d, want 400", resp.StatusCode)
	}
}

func TestSchemaEvolveEndpoint_SecondRunAppliesNothing(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/schema/evolve", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result struct {
		Applied []string `json:"applied"`
		Failed  []string `json:"failed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	// The test store already migrated at open.
	if len(result.Applied) != 0 || len(result.Failed) != 0 {
		t.Errorf("result = %+v, want nothing to do", result)
	}
}

func TestAggregatedEndpoint_CachePurgedOnMappingWrite(t *testing.T) {
	srv, store := testServer(t)
	seedGoogleFact(t, store)

	// Prime the cache with the unmapped identity.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/metrics/unified?start=2025-03-01&end=2025-03-31", nil)
	var before []report.UnifiedRow
	if err := json.NewDecoder(resp.Body).Decode(&before); err != nil {
		t.Fatal(err)
	}
	if before[0].DisplayName != "Brand Campaign" {
		t.Fatalf("expected raw name before mapping, got %q", before[0].DisplayName)
	}

	doJSON(t, http.MethodPost, srv.URL+"/api/mappings", map[string]any{
		"source_system":        "google_ads",
		"external_campaign_id": "123",
		"display_name":         "Brand – US",
	})

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/metrics/unified?start=2025-03-01&end=2025-03-31", nil)
	var after []report.UnifiedRow
	if err := json.NewDecoder(resp.Body).Decode(&after); err != nil {
		t.Fatal(err)
	}
	if after[0].DisplayName != "Brand – US" {
		t.Errorf("DisplayName = %q after mapping write, cache not purged", after[0].DisplayName)
	}
}
