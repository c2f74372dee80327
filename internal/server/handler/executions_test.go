package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

type stubJournal struct {
	reports []domain.ExecutionReport
	fees    float64
}

func (s *stubJournal) Insert(ctx context.Context, r domain.ExecutionReport) error { return nil }
func (s *stubJournal) ListRecent(ctx context.Context, limit int) ([]domain.ExecutionReport, error) {
	if limit < len(s.reports) {
		return s.reports[:limit], nil
	}
	return s.reports, nil
}
func (s *stubJournal) SumFeesUsd(ctx context.Context, since time.Time) (float64, error) {
	return s.fees, nil
}
func (s *stubJournal) ListDay(ctx context.Context, day time.Time) ([]domain.ExecutionReport, error) {
	return nil, nil
}

type stubStream struct {
	messages []domain.StreamMessage
}

func (s *stubStream) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	return s.messages, nil
}

type executionsBody struct {
	Executions []executionResponse `json:"executions"`
	Fees24h    float64             `json:"fees_24h_usd"`
}

func getExecutions(t *testing.T, h *ExecutionHandler, target string) (int, executionsBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body executionsBody
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
	}
	return rec.Code, body
}

func TestListRecentExecutions(t *testing.T) {
	journal := &stubJournal{
		reports: []domain.ExecutionReport{{
			ID:          "r1",
			OrderID:     "o1",
			Strategy:    "hype_usdc",
			Direction:   domain.DirectionBuyDexSellCex,
			Outcome:     domain.OutcomeFilled,
			NotionalUsd: 1000,
			DexFeeUsd:   3,
			CexFeeUsd:   0.2,
			GasFeeUsd:   0.5,
			StartedAt:   time.Now(),
			FinishedAt:  time.Now(),
		}},
		fees: 3.7,
	}
	h := NewExecutionHandler(journal, nil, "")

	code, body := getExecutions(t, h, "/api/executions")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(body.Executions))
	}
	got := body.Executions[0]
	if got.Direction != "buy_dex_sell_cex" || got.Outcome != "filled" {
		t.Errorf("direction/outcome = %q/%q", got.Direction, got.Outcome)
	}
	if got.FeesUsd != 3.7 {
		t.Errorf("fees = %v, want 3.7", got.FeesUsd)
	}
	if body.Fees24h != 3.7 {
		t.Errorf("fees 24h = %v", body.Fees24h)
	}
}

func TestListRecentFallsBackToStream(t *testing.T) {
	now := time.Now()
	stream := &stubStream{}
	for i, id := range []string{"r1", "r2", "r3"} {
		payload, err := json.Marshal(domain.ExecutionReport{
			ID:         id,
			Strategy:   "hype_usdc",
			Direction:  domain.DirectionBuyCexSellDex,
			Outcome:    domain.OutcomeFilled,
			DexFeeUsd:  1,
			StartedAt:  now,
			FinishedAt: now,
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		stream.messages = append(stream.messages, domain.StreamMessage{
			ID:      string(rune('0'+i)) + "-0",
			Payload: payload,
		})
	}
	h := NewExecutionHandler(nil, stream, "arb:executions:log")

	code, body := getExecutions(t, h, "/api/executions?limit=2")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Executions) != 2 {
		t.Fatalf("executions = %d, want limit 2", len(body.Executions))
	}
	if body.Executions[0].ID != "r3" || body.Executions[1].ID != "r2" {
		t.Errorf("order = %s, %s, want newest first", body.Executions[0].ID, body.Executions[1].ID)
	}
	// The fee window covers everything still in the stream, not just the page.
	if body.Fees24h != 3 {
		t.Errorf("fees 24h = %v, want 3", body.Fees24h)
	}
}

func TestListRecentWithoutSources(t *testing.T) {
	h := NewExecutionHandler(nil, nil, "")
	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/executions", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
