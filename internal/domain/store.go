package domain

import (
	"context"
	"time"
)

// ExecutionJournal persists execution reports for PnL tracking. It is an
// outside observer of the pipeline; nothing in the trading core depends on
// a journal being configured.
type ExecutionJournal interface {
	Insert(ctx context.Context, report ExecutionReport) error
	ListRecent(ctx context.Context, limit int) ([]ExecutionReport, error)
	SumFeesUsd(ctx context.Context, since time.Time) (float64, error)
	ListDay(ctx context.Context, day time.Time) ([]ExecutionReport, error)
}
