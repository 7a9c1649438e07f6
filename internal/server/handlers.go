package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/arkinlabs/engine/internal/domain"
)

// handleHealth answers a bare liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "engine",
	})
}

// handleStatus reports process resource usage and uptime.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to sample cpu percent")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	memUsedPercent := 0.0
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to sample memory stats")
	} else {
		memUsedPercent = memStat.UsedPercent
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds":   time.Since(s.startedAt).Seconds(),
		"cpu_percent":      cpuPercent[0],
		"mem_used_percent": memUsedPercent,
		"accounts":         s.ledger.AccountCount(),
	})
}

// handleAccounts lists every ledger account with its current balance.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.ledger.Accounts()
	out := make([]map[string]interface{}, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, map[string]interface{}{
			"id":       acc.ID,
			"venue_id": acc.VenueID,
			"owner":    acc.Owner,
			"kind":     acc.Kind,
			"balance":  s.ledger.Balance(acc.ID).String(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleTransfers returns the full transfer journal. Expensive; intended
// for debugging, not a polling dashboard.
func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.Transfers())
}

// handleInsights lists every (instrument, feature) series the feature store
// currently holds, with its most recent value as of now.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	keys := s.features.Keys()
	out := make([]map[string]interface{}, 0, len(keys))
	for _, key := range keys {
		value, ok := s.features.Last(key, now)
		if !ok {
			continue
		}
		out = append(out, map[string]interface{}{
			"instrument_id": key.InstrumentID,
			"feature_id":    featureIDString(key.FeatureID),
			"value":         value,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func featureIDString(id domain.FeatureID) string { return id.String() }

// writeJSON encodes data as the response body with status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode json response")
	}
}
