package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// StreamSource reads execution reports back from the telemetry stream. It is
// the fallback source when no journal is configured.
type StreamSource interface {
	StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error)
}

// ExecutionHandler serves execution reports: from the journal when one is
// configured, otherwise replayed from the capped telemetry stream.
type ExecutionHandler struct {
	journal    domain.ExecutionJournal
	stream     StreamSource
	streamName string
}

// NewExecutionHandler creates an ExecutionHandler. journal may be nil when
// persistence is disabled; stream then serves what the capped telemetry
// stream still holds.
func NewExecutionHandler(journal domain.ExecutionJournal, stream StreamSource, streamName string) *ExecutionHandler {
	return &ExecutionHandler{journal: journal, stream: stream, streamName: streamName}
}

type executionResponse struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	Strategy    string  `json:"strategy"`
	Direction   string  `json:"direction"`
	Outcome     string  `json:"outcome"`
	NotionalUsd float64 `json:"notional_usd"`
	FeesUsd     float64 `json:"fees_usd"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at"`
	FinishedAt  string  `json:"finished_at"`
}

// ListRecent returns the newest execution reports plus the 24h fee total.
// GET /api/executions?limit=N
func (h *ExecutionHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.journal != nil:
		h.fromJournal(w, r)
	case h.stream != nil:
		h.fromStream(w, r)
	default:
		writeError(w, http.StatusServiceUnavailable, "no execution report source is configured")
	}
}

func (h *ExecutionHandler) fromJournal(w http.ResponseWriter, r *http.Request) {
	reports, err := h.journal.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}
	fees, err := h.journal.SumFeesUsd(r.Context(), time.Now().Add(-24*time.Hour))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}
	writeReports(w, reports, fees)
}

// fromStream replays the telemetry stream. The stream is capped, so this
// serves at most its retention window; the 24h fee total covers the same.
func (h *ExecutionHandler) fromStream(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.stream.StreamRead(r.Context(), h.streamName, "0", 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stream read failed")
		return
	}

	var (
		reports []domain.ExecutionReport
		fees    float64
		cutoff  = time.Now().Add(-24 * time.Hour)
	)
	for _, msg := range msgs {
		var rep domain.ExecutionReport
		if err := json.Unmarshal(msg.Payload, &rep); err != nil {
			continue
		}
		reports = append(reports, rep)
		if rep.FinishedAt.After(cutoff) {
			fees += rep.TotalFeesUsd()
		}
	}

	// Stream order is oldest first; the API serves newest first.
	limit := parseLimit(r)
	if len(reports) > limit {
		reports = reports[len(reports)-limit:]
	}
	for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
		reports[i], reports[j] = reports[j], reports[i]
	}
	writeReports(w, reports, fees)
}

func writeReports(w http.ResponseWriter, reports []domain.ExecutionReport, fees float64) {
	out := make([]executionResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, executionResponse{
			ID:          rep.ID,
			OrderID:     rep.OrderID,
			Strategy:    rep.Strategy,
			Direction:   rep.Direction.String(),
			Outcome:     string(rep.Outcome),
			NotionalUsd: rep.NotionalUsd,
			FeesUsd:     rep.TotalFeesUsd(),
			Error:       rep.Error,
			StartedAt:   rep.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt:  rep.FinishedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"executions":   out,
		"fees_24h_usd": fees,
	})
}
