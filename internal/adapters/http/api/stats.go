package api

import (
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	providers map[string]StatsProvider
	names     []string
}

// NewStatsHandler creates a stats handler reporting one section per provider.
func NewStatsHandler(providers map[string]StatsProvider) *StatsHandler {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return &StatsHandler{providers: providers, names: names}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	out := make(map[string]interface{}, len(h.names))
	for _, name := range h.names {
		out[name] = h.providers[name].GetStats()
	}
	writeJSON(w, http.StatusOK, out)
}
