package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/metricmind/campfuse/internal/db"
)

type SchemaHandler struct {
	Store *db.Store
}

// Evolve re-runs schema evolution and refreshes the capability snapshot.
// Normally this happens once at process start; the endpoint exists so an
// operator can converge a replica whose boot-time run had failures.
func (h *SchemaHandler) Evolve(w http.ResponseWriter, r *http.Request) {
	result, err := db.Migrate(h.Store.DB)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.Store.Refresh(); err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
