package hyperliquid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func newMetaServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"universe":[{"name":"BTC"},{"name":"ETH"},{"name":"HYPE"}]}`))
	}))
}

func TestResolveAssetCachesUniverse(t *testing.T) {
	srv := newMetaServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, nil, nil)
	ctx := context.Background()

	idx, err := c.resolveAsset(ctx, "HYPE")
	if err != nil {
		t.Fatalf("resolveAsset: %v", err)
	}
	if idx != 2 {
		t.Fatalf("asset index = %d, want 2", idx)
	}
	if _, err := c.resolveAsset(ctx, "UNLISTED"); err == nil {
		t.Fatal("unknown coin must be an error")
	}
}

func TestResolveAssetConcurrent(t *testing.T) {
	srv := newMetaServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, nil, nil)
	ctx := context.Background()

	// Every executor shares one client; concurrent cold-cache lookups must
	// not trip the race detector or corrupt the index.
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		coin := "ETH"
		if i%2 == 0 {
			coin = "HYPE"
		}
		wg.Add(1)
		go func(coin string) {
			defer wg.Done()
			if _, err := c.resolveAsset(ctx, coin); err != nil {
				errs <- err
			}
		}(coin)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("resolveAsset: %v", err)
	}

	if idx, err := c.resolveAsset(ctx, "BTC"); err != nil || idx != 0 {
		t.Fatalf("resolveAsset(BTC) = %d, %v, want 0, nil", idx, err)
	}
}
