package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/metricmind/campfuse/internal/cache"
	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/report"
	"github.com/metricmind/campfuse/internal/sources"
)

type ReportHandler struct {
	Store   *db.Store
	Sources []sources.Source
	Cache   *cache.ReportCache
}

func (h *ReportHandler) Unified(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	rows, err := h.unify(start, end)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if rows == nil {
		rows = []report.UnifiedRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (h *ReportHandler) Aggregated(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	dims, err := report.ParseDimensions(r.URL.Query().Get("group_by"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.unify(start, end)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	agg := report.Aggregate(rows, dims, report.Filter{
		Platform: r.URL.Query().Get("platform"),
		Network:  r.URL.Query().Get("network"),
	})
	if agg == nil {
		agg = []report.AggregatedRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agg)
}

func (h *ReportHandler) unify(start, end string) ([]report.UnifiedRow, error) {
	if rows, ok := h.Cache.Get(start, end); ok {
		return rows, nil
	}
	rows, err := report.Unify(h.Store, h.Sources, start, end)
	if err != nil {
		return nil, err
	}
	h.Cache.Set(start, end, rows)
	return rows, nil
}

func dateRange(w http.ResponseWriter, r *http.Request) (start, end string, ok bool) {
	start = r.URL.Query().Get("start")
	end = r.URL.Query().Get("end")
	for _, d := range []string{start, end} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			jsonError(w, "start and end must be YYYY-MM-DD", http.StatusBadRequest)
			return "", "", false
		}
	}
	if start > end {
		jsonError(w, "start must not be after end", http.StatusBadRequest)
		return "", "", false
	}
	return start, end, true
}
