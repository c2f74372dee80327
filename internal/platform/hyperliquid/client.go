package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// orderSubmitLimit caps order submissions per window when a rate limiter is
// configured.
const (
	orderSubmitLimit  = 10
	orderSubmitWindow = time.Second
	orderRateKey      = "hyperliquid:order_submit"
)

// ActionSigner signs an exchange action payload for a given nonce. The
// concrete implementation lives in internal/crypto.
type ActionSigner interface {
	SignAction(payload []byte, nonce int64) (r, s string, v uint8, err error)
}

// Client is the REST client for the Hyperliquid exchange API. One Client is
// shared by every executor, so all state behind it must be safe for
// concurrent use.
type Client struct {
	apiURL     string
	signer     ActionSigner
	limiter    domain.RateLimiter // optional
	httpClient *http.Client

	mu         sync.Mutex
	assetIndex map[string]int // guarded by mu
}

// NewClient creates an exchange client. apiURL is the API root, e.g.
// "https://api.hyperliquid.xyz". The rate limiter may be nil.
func NewClient(apiURL string, signer ActionSigner, limiter domain.RateLimiter) *Client {
	return &Client{
		apiURL:  strings.TrimRight(apiURL, "/"),
		signer:  signer,
		limiter: limiter,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		assetIndex: make(map[string]int),
	}
}

// OrderParams describes one IoC limit order.
type OrderParams struct {
	Coin    string
	IsBuy   bool
	Size    float64
	LimitPx float64
}

// PlaceIOCOrder submits an immediate-or-cancel limit order. A non-"ok"
// venue status is an error; whatever filled before cancellation stands.
func (c *Client) PlaceIOCOrder(ctx context.Context, p OrderParams) error {
	if c.limiter != nil {
		allowed, err := c.limiter.Allow(ctx, orderRateKey, orderSubmitLimit, orderSubmitWindow)
		if err != nil {
			return fmt.Errorf("hyperliquid: rate limiter: %w", err)
		}
		if !allowed {
			return fmt.Errorf("hyperliquid: order submit: %w", domain.ErrRateLimited)
		}
	}

	asset, err := c.resolveAsset(ctx, p.Coin)
	if err != nil {
		return err
	}

	action := orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:   asset,
			IsBuy:   p.IsBuy,
			LimitPx: formatFloat(p.LimitPx),
			Size:    formatFloat(p.Size),
			OrderType: orderType{
				Limit: &limitOrderType{Tif: "Ioc"},
			},
		}},
		Grouping: "na",
	}

	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("hyperliquid: marshal order action: %w", err)
	}

	nonce := time.Now().UnixMilli()
	r, s, v, err := c.signer.SignAction(payload, nonce)
	if err != nil {
		return fmt.Errorf("hyperliquid: sign order: %w", err)
	}

	req := exchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: wireSignature{R: r, S: s, V: v},
	}

	body, err := c.post(ctx, "/exchange", req)
	if err != nil {
		return fmt.Errorf("hyperliquid: place order %s: %w", p.Coin, err)
	}

	var resp exchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("hyperliquid: decode order response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("hyperliquid: order rejected: %s", strings.TrimSpace(string(resp.Response)))
	}
	return nil
}

// resolveAsset maps a coin symbol to the venue's asset index, fetching the
// universe on a cache miss. Concurrent misses may fetch the meta endpoint
// more than once; the universe is immutable per venue, so last write wins
// with the same values.
func (c *Client) resolveAsset(ctx context.Context, coin string) (int, error) {
	c.mu.Lock()
	idx, ok := c.assetIndex[coin]
	c.mu.Unlock()
	if ok {
		return idx, nil
	}

	body, err := c.post(ctx, "/info", map[string]string{"type": "meta"})
	if err != nil {
		return 0, fmt.Errorf("hyperliquid: fetch meta: %w", err)
	}

	var meta struct {
		Universe []struct {
			Name string `json:"name"`
		} `json:"universe"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return 0, fmt.Errorf("hyperliquid: decode meta: %w", err)
	}

	c.mu.Lock()
	for i, entry := range meta.Universe {
		c.assetIndex[entry.Name] = i
	}
	idx, ok = c.assetIndex[coin]
	c.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("hyperliquid: unknown coin %q", coin)
	}
	return idx, nil
}

// post sends a JSON POST and returns the raw response body on 2xx.
func (c *Client) post(ctx context.Context, path string, reqBody any) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, strings.TrimSpace(string(respBody)))
		default:
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
	}
	return respBody, nil
}
