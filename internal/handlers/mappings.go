package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/metricmind/campfuse/internal/cache"
	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/models"
	"github.com/metricmind/campfuse/internal/resolver"
	"github.com/metricmind/campfuse/internal/sources"
)

type MappingHandler struct {
	Store   *db.Store
	Sources []sources.Source
	Cache   *cache.ReportCache
}

func (h *MappingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var in models.MappingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if in.SourceSystem == "" || in.ExternalCampaignID == "" {
		jsonError(w, "source_system and external_campaign_id are required", http.StatusBadRequest)
		return
	}
	if in.DisplayName == "" {
		jsonError(w, "display_name is required", http.StatusBadRequest)
		return
	}

	m, err := models.UpsertMapping(h.Store, in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	h.Cache.Purge()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

func (h *MappingHandler) List(w http.ResponseWriter, r *http.Request) {
	mappings, err := models.ListMappings(h.Store, r.URL.Query().Get("source"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if mappings == nil {
		mappings = []models.Mapping{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mappings)
}

func (h *MappingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := models.SoftDeleteMapping(h.Store, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		writeStoreError(w, err)
		return
	}
	h.Cache.Purge()

	w.WriteHeader(http.StatusNoContent)
}

func (h *MappingHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var items []models.ReorderItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := models.ReorderMappings(h.Store, items); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "not found", http.StatusNotFound)
			return
		}
		writeStoreError(w, err)
		return
	}
	h.Cache.Purge()

	w.WriteHeader(http.StatusNoContent)
}

func (h *MappingHandler) Unmapped(w http.ResponseWriter, r *http.Request) {
	unmapped, err := resolver.Unmapped(h.Store, h.Sources, r.URL.Query().Get("source"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if unmapped == nil {
		unmapped = []resolver.UnmappedCampaign{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(unmapped)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrUnavailable) {
		jsonError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
