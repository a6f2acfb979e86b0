package api

import (
	"maps"
	"net/http"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StaticStats adds fixed entries, such as the build name and the backend,
// to the entries of another provider.
type StaticStats struct {
	Info map[string]interface{}
	Next StatsProvider
}

// GetStats implements StatsProvider. Entries of Next win on collision.
func (s StaticStats) GetStats() map[string]interface{} {
	out := make(map[string]interface{}, len(s.Info))
	maps.Copy(out, s.Info)
	if s.Next != nil {
		maps.Copy(out, s.Next.GetStats())
	}
	return out
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]interface{}{}
	if h.statsProvider != nil {
		stats = h.statsProvider.GetStats()
	}
	writeJSON(w, http.StatusOK, stats)
}
