package crypto

import (
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Pre-computed keccak256 of the canonical EIP-712 type strings.
var (
	// EIP712Domain(string name,string version,uint256 chainId)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)

	// Agent(string source,bytes32 connectionId)
	agentTypeHash = ethcrypto.Keccak256(
		[]byte("Agent(string source,bytes32 connectionId)"),
	)
)

// signingChainID is the fixed chain ID the exchange uses for its signing
// domain, independent of the EVM chain the swaps settle on.
const signingChainID = 1337

// Signer signs exchange actions with a secp256k1 key. The exchange verifies
// an EIP-712 "agent" envelope whose connection ID commits to the action
// payload and nonce.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	source     string
	domainSep  []byte
}

// NewSigner creates a signer from a hex-encoded private key. source
// distinguishes mainnet ("a") from testnet ("b") signatures.
func NewSigner(privateKeyHex, source string) (*Signer, error) {
	pk, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}
	if source == "" {
		source = "a"
	}
	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		source:     source,
		domainSep:  buildDomainSeparator("Exchange", "1", signingChainID),
	}, nil
}

// Address returns the address derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignAction signs the serialized action for the given nonce and returns the
// signature split into the r/s/v fields the exchange API expects.
func (s *Signer) SignAction(payload []byte, nonce int64) (r, sv string, v uint8, err error) {
	connectionID := actionHash(payload, nonce)

	structHash := ethcrypto.Keccak256(
		concatBytes(
			agentTypeHash,
			ethcrypto.Keccak256([]byte(s.source)),
			connectionID,
		),
	)
	digest := eip712Hash(s.domainSep, structHash)

	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", "", 0, fmt.Errorf("crypto/signer: signing: %w", err)
	}

	// go-ethereum yields v in {0,1}; the API expects {27,28}.
	v = sig[64]
	if v < 27 {
		v += 27
	}
	return "0x" + hex.EncodeToString(sig[:32]), "0x" + hex.EncodeToString(sig[32:64]), v, nil
}

// actionHash commits to the action payload and nonce: keccak256 of the
// payload followed by the nonce as 8 big-endian bytes.
func actionHash(payload []byte, nonce int64) []byte {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], uint64(nonce))
	return ethcrypto.Keccak256(concatBytes(payload, nonceBytes[:]))
}

// buildDomainSeparator returns keccak256(abi.encode(typeHash, nameHash,
// versionHash, chainId)).
func buildDomainSeparator(name, version string, chainID int64) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(name)),
			ethcrypto.Keccak256([]byte(version)),
			bigIntTo32Bytes(big.NewInt(chainID)),
		),
	)
}

// eip712Hash computes keccak256("\x19\x01" || domainSeparator || structHash).
func eip712Hash(domainSep, structHash []byte) []byte {
	return ethcrypto.Keccak256(
		concatBytes([]byte{0x19, 0x01}, domainSep, structHash),
	)
}

func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}
