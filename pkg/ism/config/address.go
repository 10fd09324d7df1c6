package config

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddress parses a 20 or 32 byte hex address. 20 byte addresses are
// left-padded to 32 bytes. The empty string is the zero address.
func ParseAddress(s string) (util.HexAddress, error) {
	var addr util.HexAddress
	s = strings.TrimSpace(s)
	if s == "" {
		return addr, nil
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return addr, errorsmod.Wrapf(ErrInvalidAddress, "%s: %s", s, err)
	}
	switch len(b) {
	case common.AddressLength, len(addr):
		copy(addr[len(addr)-len(b):], b)
		return addr, nil
	}
	return addr, errorsmod.Wrapf(ErrInvalidAddress, "%s: expected 20 or 32 bytes, got %d", s, len(b))
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) util.HexAddress {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// ParseValidator parses a 20 byte validator signer address.
func ParseValidator(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, errorsmod.Wrapf(ErrInvalidAddress, "invalid validator address %q", s)
	}
	return common.HexToAddress(s), nil
}

// FormatAddress renders addr as a 20 byte address when its top 12 bytes are
// zero, otherwise as the full 32 byte form.
func FormatAddress(addr util.HexAddress) string {
	if addr.IsZeroAddress() {
		return ""
	}
	for _, b := range addr[:12] {
		if b != 0 {
			return addr.String()
		}
	}
	return common.BytesToAddress(addr[12:]).Hex()
}
