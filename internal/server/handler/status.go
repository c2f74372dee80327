package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/engine"
)

// StatsSource reports pipeline counters.
type StatsSource interface {
	Stats() engine.Stats
}

// StrategyLister names the running strategies.
type StrategyLister interface {
	List() []string
}

// StatusHandler serves the engine status for dashboards.
type StatusHandler struct {
	mode       string
	stats      StatsSource
	strategies StrategyLister
	quotes     domain.QuoteCache
}

// NewStatusHandler creates a StatusHandler. quotes may be nil when no quote
// cache is configured.
func NewStatusHandler(mode string, stats StatsSource, strategies StrategyLister, quotes domain.QuoteCache) *StatusHandler {
	return &StatusHandler{mode: mode, stats: stats, strategies: strategies, quotes: quotes}
}

// GetStatus reports the mode, pipeline counters, and the latest cached
// quotes per strategy.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.stats.Stats()

	names := h.strategies.List()
	quotes := make(map[string]map[string]float64, len(names))
	if h.quotes != nil {
		for _, name := range names {
			q, err := h.quotes.GetQuotes(r.Context(), name)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					writeError(w, http.StatusInternalServerError, "quote cache unavailable")
					return
				}
				continue
			}
			quotes[name] = q
		}
	}

	var uptime string
	if st.Running {
		uptime = time.Since(st.StartedAt).Round(time.Second).String()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":       h.mode,
		"running":    st.Running,
		"uptime":     uptime,
		"strategies": names,
		"pipeline": map[string]any{
			"collectors":        st.Collectors,
			"strategies":        st.Strategies,
			"executors":         st.Executors,
			"events_published":  st.EventsPublished,
			"events_dropped":    st.EventsDropped,
			"actions_published": st.ActionsPublished,
			"actions_dropped":   st.ActionsDropped,
		},
		"quotes": quotes,
	})
}
