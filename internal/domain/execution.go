package domain

import "time"

// ExecutionOutcome classifies how one arbitrage attempt ended.
type ExecutionOutcome string

const (
	// OutcomeSkipped means no permit was available; the opportunity was
	// dropped by design and nothing was traded.
	OutcomeSkipped ExecutionOutcome = "skipped"
	// OutcomeDexFailed means the first leg failed; no exposure exists.
	OutcomeDexFailed ExecutionOutcome = "dex_failed"
	// OutcomeOneSided means the DEX leg filled but the CEX leg failed,
	// leaving an unhedged position. The loudest failure in the system.
	OutcomeOneSided ExecutionOutcome = "one_sided"
	// OutcomeFilled means both legs completed.
	OutcomeFilled ExecutionOutcome = "filled"
)

// ExecutionReport records one execution attempt for observability sinks.
// Reports flow outward only; the trading core never reads them back.
type ExecutionReport struct {
	ID          string
	OrderID     string
	Strategy    string
	Direction   Direction
	Outcome     ExecutionOutcome
	NotionalUsd float64
	DexFeeUsd   float64
	CexFeeUsd   float64
	GasFeeUsd   float64
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// TotalFeesUsd sums the cost side of a filled report.
func (r ExecutionReport) TotalFeesUsd() float64 {
	return r.DexFeeUsd + r.CexFeeUsd + r.GasFeeUsd
}
