package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/linesmerrill/league-invite-api/api"
)

// MetricsHandler serves request and invite outcome counters
func MetricsHandler(mc *api.MetricsCollector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(mc.Snapshot())
	})
}
