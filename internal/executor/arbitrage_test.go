package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/governor"
)

type fakeDexLeg struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeDexLeg) ExecuteSwap(ctx context.Context, leg domain.DexLeg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeDexLeg) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCexLeg struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCexLeg) PlaceOrder(ctx context.Context, leg domain.CexLeg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeCexLeg) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type captureReporter struct {
	mu      sync.Mutex
	reports []domain.ExecutionReport
}

func (c *captureReporter) Record(ctx context.Context, report domain.ExecutionReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, report)
}

func (c *captureReporter) last(t *testing.T) domain.ExecutionReport {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reports) == 0 {
		t.Fatal("no reports recorded")
	}
	return c.reports[len(c.reports)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrder(id string) domain.ArbitrageOrder {
	return domain.ArbitrageOrder{
		ID:        id,
		Strategy:  "hype_usdc",
		Direction: domain.DirectionBuyDexSellCex,
		DexLeg: domain.DexLeg{
			TokenIn:    common.HexToAddress("0x01"),
			TokenOut:   common.HexToAddress("0x02"),
			FeeTierPpm: 3000,
			AmountIn:   big.NewInt(1_000_000),
		},
		CexLeg: domain.CexLeg{
			Instrument: "HYPE",
			IsBuy:      false,
			Size:       24.8756,
			LimitPrice: 40.20,
		},
		CreatedAt: time.Now(),
	}
}

func newTestExecutor(dex *fakeDexLeg, cex *fakeCexLeg, rep Reporter, cfg ArbitrageConfig) *ArbitrageExecutor {
	return NewArbitrageExecutor("arb:test", governor.New(1), dex, cex, rep, cfg, testLogger())
}

func TestExecuteFilled(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	exec := newTestExecutor(dex, cex, rep, ArbitrageConfig{CexFeeBps: 2, GasFeeUsd: 0.50})

	order := testOrder("order-1")
	if err := exec.Execute(context.Background(), order); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if dex.callCount() != 1 || cex.callCount() != 1 {
		t.Fatalf("leg calls = %d/%d, want 1/1", dex.callCount(), cex.callCount())
	}

	report := rep.last(t)
	if report.Outcome != domain.OutcomeFilled {
		t.Fatalf("outcome = %q, want filled", report.Outcome)
	}
	notional := order.NotionalUsd()
	if report.NotionalUsd != notional {
		t.Errorf("notional = %v, want %v", report.NotionalUsd, notional)
	}
	wantDexFee := notional * 3000 / 1e6
	if diff := report.DexFeeUsd - wantDexFee; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("dex fee = %v, want %v", report.DexFeeUsd, wantDexFee)
	}
	wantCexFee := notional * 2 / 1e4
	if diff := report.CexFeeUsd - wantCexFee; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cex fee = %v, want %v", report.CexFeeUsd, wantCexFee)
	}
	if report.GasFeeUsd != 0.50 {
		t.Errorf("gas fee = %v, want 0.50", report.GasFeeUsd)
	}
}

func TestExecuteSkipsWithoutPermit(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	gov := governor.New(1)
	exec := NewArbitrageExecutor("arb:test", gov, dex, cex, rep, ArbitrageConfig{}, testLogger())

	held := gov.TryAcquire()
	if held == nil {
		t.Fatal("setup: expected a permit")
	}
	defer held.Release()

	if err := exec.Execute(context.Background(), testOrder("order-1")); err != nil {
		t.Fatalf("skip must not return an error, got %v", err)
	}
	if dex.callCount() != 0 || cex.callCount() != 0 {
		t.Fatalf("legs must not run on skip, got %d/%d", dex.callCount(), cex.callCount())
	}
	if got := rep.last(t).Outcome; got != domain.OutcomeSkipped {
		t.Fatalf("outcome = %q, want skipped", got)
	}
}

func TestExecuteDexFailureIsRecoverable(t *testing.T) {
	dex := &fakeDexLeg{err: errors.New("rpc: nonce too low")}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	gov := governor.New(1)
	exec := NewArbitrageExecutor("arb:test", gov, dex, cex, rep, ArbitrageConfig{}, testLogger())

	err := exec.Execute(context.Background(), testOrder("order-1"))
	if !errors.Is(err, domain.ErrDexLegFailed) {
		t.Fatalf("error = %v, want ErrDexLegFailed", err)
	}
	if errors.Is(err, domain.ErrOneSidedExposure) {
		t.Fatal("dex failure must not be classified as one-sided")
	}
	if cex.callCount() != 0 {
		t.Fatalf("cex leg ran %d times after dex failure, want 0", cex.callCount())
	}
	if got := rep.last(t).Outcome; got != domain.OutcomeDexFailed {
		t.Fatalf("outcome = %q, want dex_failed", got)
	}
	if gov.InFlight() != 0 {
		t.Fatalf("permit leaked: in flight = %d", gov.InFlight())
	}
}

func TestExecuteCexFailureIsOneSided(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{err: errors.New("exchange: order rejected")}
	rep := &captureReporter{}
	gov := governor.New(1)
	exec := NewArbitrageExecutor("arb:test", gov, dex, cex, rep, ArbitrageConfig{GasFeeUsd: 0.50}, testLogger())

	err := exec.Execute(context.Background(), testOrder("order-1"))
	if !errors.Is(err, domain.ErrOneSidedExposure) {
		t.Fatalf("error = %v, want ErrOneSidedExposure", err)
	}
	if errors.Is(err, domain.ErrDexLegFailed) {
		t.Fatal("one-sided failure must not carry the dex classification")
	}

	report := rep.last(t)
	if report.Outcome != domain.OutcomeOneSided {
		t.Fatalf("outcome = %q, want one_sided", report.Outcome)
	}
	if report.NotionalUsd == 0 {
		t.Error("one-sided report must carry the exposed notional")
	}
	if report.CexFeeUsd != 0 {
		t.Errorf("cex fee = %v on a leg that never filled", report.CexFeeUsd)
	}
	if gov.InFlight() != 0 {
		t.Fatalf("permit leaked: in flight = %d", gov.InFlight())
	}
}

func TestExecuteCooldownHoldsPermit(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	gov := governor.New(1)
	exec := NewArbitrageExecutor("arb:test", gov, dex, cex, rep,
		ArbitrageConfig{Cooldown: 150 * time.Millisecond}, testLogger())

	done := make(chan error, 1)
	go func() {
		done <- exec.Execute(context.Background(), testOrder("order-1"))
	}()

	// Mid-cooldown the permit must still be held.
	time.Sleep(50 * time.Millisecond)
	if gov.InFlight() != 1 {
		t.Fatalf("in flight during cooldown = %d, want 1", gov.InFlight())
	}

	if err := <-done; err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gov.InFlight() != 0 {
		t.Fatalf("in flight after release = %d, want 0", gov.InFlight())
	}
}

func TestExecuteCooldownAbortsOnCancel(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	exec := newTestExecutor(dex, cex, rep, ArbitrageConfig{Cooldown: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- exec.Execute(ctx, testOrder("order-1"))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cooldown did not abort on cancellation")
	}
}

func TestExecuteIgnoresOtherActions(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	exec := newTestExecutor(dex, cex, rep, ArbitrageConfig{})

	if err := exec.Execute(context.Background(), fakeAction{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if dex.callCount() != 0 || cex.callCount() != 0 {
		t.Fatal("legs ran for a foreign action kind")
	}
	if len(rep.reports) != 0 {
		t.Fatal("foreign action kinds must not be reported")
	}
}

func TestExecuteDropsDuplicateOrders(t *testing.T) {
	dex := &fakeDexLeg{}
	cex := &fakeCexLeg{}
	rep := &captureReporter{}
	exec := newTestExecutor(dex, cex, rep, ArbitrageConfig{})

	order := testOrder("order-1")
	if err := exec.Execute(context.Background(), order); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if err := exec.Execute(context.Background(), order); err != nil {
		t.Fatalf("duplicate execute: %v", err)
	}
	if dex.callCount() != 1 {
		t.Fatalf("dex calls = %d, want 1 (duplicate must not trade)", dex.callCount())
	}
}

type fakeAction struct{}

func (fakeAction) ActionKind() string { return "fake" }
