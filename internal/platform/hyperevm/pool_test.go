package hyperevm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// buildSwapLog assembles a synthetic Swap log whose third data word carries
// the given sqrt price.
func buildSwapLog(sqrtPriceX96 *big.Int) ethtypes.Log {
	data := make([]byte, 160)
	price := sqrtPriceX96.Bytes()
	copy(data[96-len(price):96], price)
	return ethtypes.Log{
		Topics: []common.Hash{
			SwapEventSignature,
			common.HexToHash("0x01"),
			common.HexToHash("0x02"),
		},
		Data: data,
	}
}

func TestDecodeSwapPrice(t *testing.T) {
	want, _ := new(big.Int).SetString("79228162514264337593543950336", 10) // 2^96, mid = 1
	got, err := DecodeSwapPrice(buildSwapLog(want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Fatalf("decoded sqrt price %s, want %s", got, want)
	}
}

func TestDecodeSwapPriceRejectsForeignTopic(t *testing.T) {
	log := buildSwapLog(big.NewInt(1))
	log.Topics[0] = common.HexToHash("0xdead")
	if _, err := DecodeSwapPrice(log); err == nil {
		t.Fatal("expected an error for a non-Swap topic")
	}
}

func TestDecodeSwapPriceRejectsShortData(t *testing.T) {
	log := buildSwapLog(big.NewInt(1))
	log.Data = log.Data[:96]
	if _, err := DecodeSwapPrice(log); err == nil {
		t.Fatal("expected an error for truncated data")
	}
}

func TestDecodeSwapPriceRejectsZeroPrice(t *testing.T) {
	log := ethtypes.Log{
		Topics: []common.Hash{SwapEventSignature},
		Data:   make([]byte, 160),
	}
	if _, err := DecodeSwapPrice(log); err == nil {
		t.Fatal("expected an error for a zero sqrt price")
	}
}
