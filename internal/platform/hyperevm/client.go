// Package hyperevm wraps the go-ethereum client for HyperEVM: pool state
// reads, Swap log subscriptions, and router swap submission.
package hyperevm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ClientConfig holds connection parameters for the HyperEVM node.
type ClientConfig struct {
	// RPCWSURL is the websocket endpoint. Log subscriptions require a
	// websocket transport, plain HTTP will not do.
	RPCWSURL string

	// ChainID is checked against the node at connect time when non-zero.
	ChainID int64
}

// Client wraps an ethclient connection to a HyperEVM node.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
}

// Dial connects to the node and verifies the chain ID.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.RPCWSURL == "" {
		return nil, fmt.Errorf("hyperevm: rpc_ws_url is required")
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCWSURL)
	if err != nil {
		return nil, fmt.Errorf("hyperevm: dial %s: %w", cfg.RPCWSURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("hyperevm: chain id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		eth.Close()
		return nil, fmt.Errorf("hyperevm: node reports chain %d, config expects %d", chainID.Int64(), cfg.ChainID)
	}

	return &Client{eth: eth, chainID: chainID}, nil
}

// Eth returns the underlying ethclient for callers inside this package tree.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// ChainID returns the connected chain's ID.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Close tears down the node connection.
func (c *Client) Close() {
	c.eth.Close()
}
