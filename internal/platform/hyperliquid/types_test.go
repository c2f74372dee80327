package hyperliquid

import (
	"encoding/json"
	"testing"
)

func TestBboDataToQuote(t *testing.T) {
	raw := []byte(`{"channel":"bbo","data":{"coin":"HYPE","time":1714000000000,` +
		`"bbo":[{"px":"40.20","sz":"120.5","n":3},{"px":"40.25","sz":"98.1","n":2}]}}`)

	var envelope wsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	var bbo BboData
	if err := json.Unmarshal(envelope.Data, &bbo); err != nil {
		t.Fatalf("unmarshal bbo: %v", err)
	}

	quote, err := bbo.ToQuote()
	if err != nil {
		t.Fatalf("to quote: %v", err)
	}
	if quote.Instrument != "HYPE" {
		t.Errorf("instrument = %q, want HYPE", quote.Instrument)
	}
	if quote.BestBid != 40.20 {
		t.Errorf("best bid = %v, want 40.20", quote.BestBid)
	}
	if quote.BestAsk != 40.25 {
		t.Errorf("best ask = %v, want 40.25", quote.BestAsk)
	}
	if quote.Timestamp.UnixMilli() != 1714000000000 {
		t.Errorf("timestamp = %v", quote.Timestamp)
	}
}

func TestBboDataToQuoteOneSidedBook(t *testing.T) {
	bbo := BboData{
		Coin:   "HYPE",
		Levels: []*BookLevel{{Px: "40.20"}, nil},
	}
	if _, err := bbo.ToQuote(); err == nil {
		t.Fatal("expected an error for a one-sided book")
	}
}

func TestBboDataToQuoteBadPrice(t *testing.T) {
	bbo := BboData{
		Coin:   "HYPE",
		Levels: []*BookLevel{{Px: "not-a-number"}, {Px: "40.25"}},
	}
	if _, err := bbo.ToQuote(); err == nil {
		t.Fatal("expected an error for an unparseable price")
	}
}

func TestFormatFloatAvoidsScientificNotation(t *testing.T) {
	if got := formatFloat(0.0000125); got != "0.0000125" {
		t.Fatalf("formatFloat = %q", got)
	}
	if got := formatFloat(40.25); got != "40.25" {
		t.Fatalf("formatFloat = %q", got)
	}
}
