package hyperevm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// swapGasLimit is a fixed ceiling for a single-hop router swap.
const swapGasLimit = 500_000

// swapDeadline is how far in the future the multicall deadline is set.
const swapDeadline = 300 * time.Second

// routerABIJSON covers the two SwapRouter02 entry points the engine uses.
const routerABIJSON = `[
  {"name":"exactInputSingle","type":"function","stateMutability":"payable",
   "inputs":[{"name":"params","type":"tuple","components":[
     {"name":"tokenIn","type":"address"},
     {"name":"tokenOut","type":"address"},
     {"name":"fee","type":"uint24"},
     {"name":"recipient","type":"address"},
     {"name":"amountIn","type":"uint256"},
     {"name":"amountOutMinimum","type":"uint256"},
     {"name":"sqrtPriceLimitX96","type":"uint160"}]}],
   "outputs":[{"name":"amountOut","type":"uint256"}]},
  {"name":"multicall","type":"function","stateMutability":"payable",
   "inputs":[{"name":"deadline","type":"uint256"},{"name":"data","type":"bytes[]"}],
   "outputs":[{"name":"results","type":"bytes[]"}]}
]`

var routerABI = mustParseABI(routerABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("hyperevm: parse router abi: %v", err))
	}
	return parsed
}

// exactInputSingleParams mirrors the router's calldata tuple. Field order
// must match the ABI component order above.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// SwapParams describes one exactInputSingle swap through the router.
type SwapParams struct {
	TokenIn      common.Address
	TokenOut     common.Address
	FeeTierPpm   uint32
	AmountIn     *big.Int
	MinAmountOut *big.Int
}

// Router submits swaps through a SwapRouter02-compatible contract, signing
// with a local key. Transactions are fire-and-forget: the caller gets the
// hash back as soon as the node accepts the submission.
type Router struct {
	client  *Client
	address common.Address
	key     *ecdsa.PrivateKey
	wallet  common.Address
}

// NewRouter creates a Router bound to the given contract and signing key.
func NewRouter(client *Client, routerAddress common.Address, privateKeyHex string) (*Router, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("hyperevm: parse router key: %w", err)
	}
	return &Router{
		client:  client,
		address: routerAddress,
		key:     key,
		wallet:  ethcrypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Wallet returns the address the router signs and receives with.
func (r *Router) Wallet() common.Address {
	return r.wallet
}

// ExactInputSingle packs the swap into a multicall with a fresh deadline,
// signs it as an EIP-1559 transaction, and sends it. It does not wait for a
// receipt; inclusion failures surface on the next pool update instead.
func (r *Router) ExactInputSingle(ctx context.Context, p SwapParams) (common.Hash, error) {
	minOut := p.MinAmountOut
	if minOut == nil {
		minOut = big.NewInt(0)
	}
	inner, err := routerABI.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           p.TokenIn,
		TokenOut:          p.TokenOut,
		Fee:               new(big.Int).SetUint64(uint64(p.FeeTierPpm)),
		Recipient:         r.wallet,
		AmountIn:          p.AmountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: pack exactInputSingle: %w", err)
	}

	deadline := big.NewInt(time.Now().Add(swapDeadline).Unix())
	calldata, err := routerABI.Pack("multicall", deadline, [][]byte{inner})
	if err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: pack multicall: %w", err)
	}

	nonce, err := r.client.eth.PendingNonceAt(ctx, r.wallet)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: pending nonce: %w", err)
	}
	tipCap, err := r.client.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: suggest tip cap: %w", err)
	}
	head, err := r.client.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: head block: %w", err)
	}
	// Fee cap follows the usual 2*base+tip convention.
	feeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		tipCap,
	)

	tx := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   r.client.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       swapGasLimit,
		To:        &r.address,
		Value:     big.NewInt(0),
		Data:      calldata,
	})

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(r.client.chainID), r.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: sign swap tx: %w", err)
	}
	if err := r.client.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("hyperevm: send swap tx: %w", err)
	}
	return signed.Hash(), nil
}
