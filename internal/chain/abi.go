package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Function selectors (first four bytes of the keccak-256 hash of the
// canonical signature).
const (
	selectorOwnerOf   = "0x6352211e" // ownerOf(uint256)
	selectorBalanceOf = "0x00fdd58e" // balanceOf(address,uint256)
	selectorTokenURI  = "0xc87b56dd" // tokenURI(uint256)
	selectorURI       = "0x0e89341c" // uri(uint256)
)

const wordSize = 32

// ErrInvalidTokenID is returned for token ids that are not non-negative
// decimal or 0x-hex integers.
var ErrInvalidTokenID = errors.New("invalid token id")

// parseTokenID accepts decimal or 0x-prefixed hex token ids.
func parseTokenID(tokenID string) (*big.Int, error) {
	s := strings.TrimSpace(tokenID)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenID, tokenID)
	}
	return n, nil
}

// encodeUint256 left-pads n into a single 32-byte word.
func encodeUint256(n *big.Int) []byte {
	word := make([]byte, wordSize)
	n.FillBytes(word)
	return word
}

// encodeAddress left-pads a 20-byte address into a 32-byte word.
func encodeAddress(addr string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(addr), "0x"))
	if err != nil || len(raw) != 20 {
		return nil, fmt.Errorf("invalid address %q", addr)
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word, nil
}

// encodeCall builds selector || word... as 0x-hex calldata.
func encodeCall(selector string, words ...[]byte) string {
	var b strings.Builder
	b.WriteString(selector)
	for _, w := range words {
		b.WriteString(hex.EncodeToString(w))
	}
	return b.String()
}

// decodeReturnData strips the 0x prefix and hex-decodes eth_call output.
func decodeReturnData(data string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode return data: %w", err)
	}
	return raw, nil
}

// decodeAddressWord extracts the address from a single 32-byte return word.
func decodeAddressWord(raw []byte) (string, error) {
	if len(raw) < wordSize {
		return "", fmt.Errorf("return data too short: %d bytes", len(raw))
	}
	return "0x" + hex.EncodeToString(raw[wordSize-20:wordSize]), nil
}

// decodeUint256Word extracts an integer from a single 32-byte return word.
func decodeUint256Word(raw []byte) (*big.Int, error) {
	if len(raw) < wordSize {
		return nil, fmt.Errorf("return data too short: %d bytes", len(raw))
	}
	return new(big.Int).SetBytes(raw[:wordSize]), nil
}

// decodeStringReturn decodes a dynamic string return value: one offset word,
// one length word at the offset, then the bytes.
func decodeStringReturn(raw []byte) (string, error) {
	if len(raw) < wordSize {
		return "", fmt.Errorf("return data too short: %d bytes", len(raw))
	}
	offset := new(big.Int).SetBytes(raw[:wordSize])
	if !offset.IsInt64() || offset.Int64()+wordSize > int64(len(raw)) {
		return "", fmt.Errorf("string offset out of range")
	}
	start := offset.Int64()
	length := new(big.Int).SetBytes(raw[start : start+wordSize])
	if !length.IsInt64() || start+wordSize+length.Int64() > int64(len(raw)) {
		return "", fmt.Errorf("string length out of range")
	}
	return string(raw[start+wordSize : start+wordSize+length.Int64()]), nil
}
