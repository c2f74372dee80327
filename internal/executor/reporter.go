package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/notify"
)

// Reporter receives execution reports. Reports flow outward only; sinks
// must never feed back into trading decisions. Record failures are the
// sink's problem to log, the executor does not care.
type Reporter interface {
	Record(ctx context.Context, report domain.ExecutionReport)
}

// MultiReporter fans a report out to every configured sink.
type MultiReporter []Reporter

// Record delivers the report to each sink in order.
func (m MultiReporter) Record(ctx context.Context, report domain.ExecutionReport) {
	for _, r := range m {
		r.Record(ctx, report)
	}
}

// SlogReporter logs every report; it is the always-on sink.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter creates the logging sink.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	return &SlogReporter{logger: logger.With(slog.String("component", "execution_report"))}
}

// Record logs one report at a level matching its outcome.
func (r *SlogReporter) Record(ctx context.Context, report domain.ExecutionReport) {
	attrs := []any{
		slog.String("report_id", report.ID),
		slog.String("order_id", report.OrderID),
		slog.String("strategy", report.Strategy),
		slog.String("direction", report.Direction.String()),
		slog.String("outcome", string(report.Outcome)),
		slog.Float64("notional_usd", report.NotionalUsd),
		slog.Float64("fees_usd", report.TotalFeesUsd()),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	}
	if report.Error != "" {
		attrs = append(attrs, slog.String("error", report.Error))
	}

	switch report.Outcome {
	case domain.OutcomeOneSided:
		r.logger.ErrorContext(ctx, "one-sided exposure", attrs...)
	case domain.OutcomeDexFailed:
		r.logger.WarnContext(ctx, "dex leg failed", attrs...)
	case domain.OutcomeSkipped:
		r.logger.InfoContext(ctx, "execution skipped", attrs...)
	default:
		r.logger.InfoContext(ctx, "execution filled", attrs...)
	}
}

// TelemetryChannel and TelemetryStream are where reports go on the
// telemetry bus.
const (
	TelemetryChannel = "arb:executions"
	TelemetryStream  = "arb:executions:log"
)

// TelemetryReporter publishes JSON reports on the telemetry bus: a pub/sub
// message for live consumers plus an append to the capped stream.
type TelemetryReporter struct {
	bus    domain.TelemetryBus
	logger *slog.Logger
}

// NewTelemetryReporter creates the telemetry sink.
func NewTelemetryReporter(bus domain.TelemetryBus, logger *slog.Logger) *TelemetryReporter {
	return &TelemetryReporter{
		bus:    bus,
		logger: logger.With(slog.String("component", "telemetry_reporter")),
	}
}

// Record publishes the report; delivery failures are logged and swallowed.
func (r *TelemetryReporter) Record(ctx context.Context, report domain.ExecutionReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		r.logger.ErrorContext(ctx, "marshal report", slog.String("error", err.Error()))
		return
	}
	if err := r.bus.Publish(ctx, TelemetryChannel, payload); err != nil {
		r.logger.WarnContext(ctx, "telemetry publish failed", slog.String("error", err.Error()))
	}
	if err := r.bus.StreamAppend(ctx, TelemetryStream, payload); err != nil {
		r.logger.WarnContext(ctx, "telemetry stream append failed", slog.String("error", err.Error()))
	}
}

// JournalReporter persists reports to the execution journal.
type JournalReporter struct {
	journal domain.ExecutionJournal
	logger  *slog.Logger
}

// NewJournalReporter creates the journal sink.
func NewJournalReporter(journal domain.ExecutionJournal, logger *slog.Logger) *JournalReporter {
	return &JournalReporter{
		journal: journal,
		logger:  logger.With(slog.String("component", "journal_reporter")),
	}
}

// Record inserts the report; persistence failures never affect trading.
func (r *JournalReporter) Record(ctx context.Context, report domain.ExecutionReport) {
	if err := r.journal.Insert(ctx, report); err != nil {
		r.logger.WarnContext(ctx, "journal insert failed",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}
}

// NotifierReporter pushes one-sided outcomes to the operator channels. It
// stays quiet for everything else; alerts are reserved for real unhedged
// capital risk.
type NotifierReporter struct {
	notifier *notify.Notifier
}

// NewNotifierReporter creates the alerting sink.
func NewNotifierReporter(notifier *notify.Notifier) *NotifierReporter {
	return &NotifierReporter{notifier: notifier}
}

// Record dispatches a critical alert for one-sided exposure.
func (r *NotifierReporter) Record(ctx context.Context, report domain.ExecutionReport) {
	if report.Outcome != domain.OutcomeOneSided {
		return
	}
	title := "ONE-SIDED EXPOSURE"
	message := fmt.Sprintf(
		"strategy %s order %s: dex leg filled, cex leg failed\ndirection: %s\nnotional: $%.2f\nerror: %s",
		report.Strategy, report.OrderID, report.Direction, report.NotionalUsd, report.Error,
	)
	// NotifyAll bypasses the event filter: this alert must always go out.
	_ = r.notifier.NotifyAll(ctx, title, message)
}
