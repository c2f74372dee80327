// Package hyperliquid provides the websocket market-data client and the
// REST exchange client for the Hyperliquid venue.
package hyperliquid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// wsSubscribeMsg is the subscription envelope for the websocket API.
type wsSubscribeMsg struct {
	Method       string         `json:"method"`
	Subscription wsSubscription `json:"subscription"`
}

type wsSubscription struct {
	Type string `json:"type"`
	Coin string `json:"coin"`
}

// wsEnvelope is the channel wrapper on every inbound websocket frame.
type wsEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// BookLevel is one side of the top of book. Prices and sizes arrive as
// decimal strings.
type BookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

// BboData is the payload of a bbo channel frame. Levels[0] is the best bid,
// Levels[1] the best ask; either may be null on a one-sided book.
type BboData struct {
	Coin   string       `json:"coin"`
	TimeMs int64        `json:"time"`
	Levels []*BookLevel `json:"bbo"`
}

// ToQuote converts a bbo frame into a domain quote, decoding the string
// prices. Frames missing either side are rejected.
func (b BboData) ToQuote() (domain.CexQuote, error) {
	if len(b.Levels) < 2 || b.Levels[0] == nil || b.Levels[1] == nil {
		return domain.CexQuote{}, fmt.Errorf("hyperliquid: bbo frame for %s is one-sided", b.Coin)
	}
	bid, err := strconv.ParseFloat(b.Levels[0].Px, 64)
	if err != nil {
		return domain.CexQuote{}, fmt.Errorf("hyperliquid: parse bid px %q: %w", b.Levels[0].Px, err)
	}
	ask, err := strconv.ParseFloat(b.Levels[1].Px, 64)
	if err != nil {
		return domain.CexQuote{}, fmt.Errorf("hyperliquid: parse ask px %q: %w", b.Levels[1].Px, err)
	}
	return domain.CexQuote{
		Instrument: b.Coin,
		BestBid:    bid,
		BestAsk:    ask,
		Timestamp:  time.UnixMilli(b.TimeMs).UTC(),
	}, nil
}

// orderWire is one order inside an exchange action. Numeric fields are
// stringified the way the venue expects.
type orderWire struct {
	Asset      int       `json:"a"`
	IsBuy      bool      `json:"b"`
	LimitPx    string    `json:"p"`
	Size       string    `json:"s"`
	ReduceOnly bool      `json:"r"`
	OrderType  orderType `json:"t"`
}

type orderType struct {
	Limit *limitOrderType `json:"limit,omitempty"`
}

type limitOrderType struct {
	Tif string `json:"tif"`
}

// orderAction is the action body of a POST /exchange order request.
type orderAction struct {
	Type     string      `json:"type"`
	Orders   []orderWire `json:"orders"`
	Grouping string      `json:"grouping"`
}

// exchangeRequest is the signed envelope sent to POST /exchange.
type exchangeRequest struct {
	Action    orderAction    `json:"action"`
	Nonce     int64          `json:"nonce"`
	Signature wireSignature  `json:"signature"`
	VaultAddr *string        `json:"vaultAddress"`
}

// wireSignature is a split secp256k1 signature.
type wireSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// exchangeResponse is the venue's reply envelope. Status is "ok" or "err";
// on error Response carries the message as a bare JSON string.
type exchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// formatFloat renders a float the way the venue's wire format wants:
// shortest round-trip decimal, never scientific notation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
