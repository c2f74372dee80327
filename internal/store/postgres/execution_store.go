package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// ExecutionStore implements domain.ExecutionJournal on the executions table.
type ExecutionStore struct {
	pool *pgxpool.Pool
}

// NewExecutionStore creates a store on the client's pool.
func NewExecutionStore(c *Client) *ExecutionStore {
	return &ExecutionStore{pool: c.Pool()}
}

const reportColumns = `id, order_id, strategy, direction, outcome, notional_usd,
	dex_fee_usd, cex_fee_usd, gas_fee_usd, error, started_at, finished_at`

// Insert persists one execution report.
func (s *ExecutionStore) Insert(ctx context.Context, r domain.ExecutionReport) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO executions (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.OrderID, r.Strategy, int16(r.Direction), string(r.Outcome),
		r.NotionalUsd, r.DexFeeUsd, r.CexFeeUsd, r.GasFeeUsd, r.Error,
		r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert execution %s: %w", r.ID, err)
	}
	return nil
}

// ListRecent returns the newest reports, newest first.
func (s *ExecutionStore) ListRecent(ctx context.Context, limit int) ([]domain.ExecutionReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM executions ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// SumFeesUsd totals all fees paid since the given time.
func (s *ExecutionStore) SumFeesUsd(ctx context.Context, since time.Time) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(dex_fee_usd + cex_fee_usd + gas_fee_usd), 0)
		FROM executions WHERE started_at >= $1`, since).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum execution fees: %w", err)
	}
	return sum, nil
}

// ListDay returns every report started within the UTC day containing day,
// oldest first. Used by the daily archiver.
func (s *ExecutionStore) ListDay(ctx context.Context, day time.Time) ([]domain.ExecutionReport, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	rows, err := s.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM executions
		WHERE started_at >= $1 AND started_at < $2
		ORDER BY started_at ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("postgres: list executions for day: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

type reportRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReports(rows reportRows) ([]domain.ExecutionReport, error) {
	var list []domain.ExecutionReport
	for rows.Next() {
		var r domain.ExecutionReport
		var direction int16
		var outcome string
		if err := rows.Scan(&r.ID, &r.OrderID, &r.Strategy, &direction, &outcome,
			&r.NotionalUsd, &r.DexFeeUsd, &r.CexFeeUsd, &r.GasFeeUsd, &r.Error,
			&r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan execution: %w", err)
		}
		r.Direction = domain.Direction(direction)
		r.Outcome = domain.ExecutionOutcome(outcome)
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate executions: %w", err)
	}
	return list, nil
}

var _ domain.ExecutionJournal = (*ExecutionStore)(nil)
