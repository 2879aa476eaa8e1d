package wallet

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress rejects strings that are not 20 byte hex addresses.
var ErrInvalidAddress = errors.New("invalid wallet address")

// NormalizeAddress returns the EIP-55 checksummed form of raw.
func NormalizeAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(raw).Hex(), nil
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
