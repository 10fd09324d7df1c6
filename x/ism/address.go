package ism

import (
	"fmt"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ownerToHex converts a bech32 owner into a left padded address. An empty
// owner means renounced ownership and maps to the zero address.
func ownerToHex(owner string) (util.HexAddress, error) {
	if owner == "" {
		return util.HexAddress{}, nil
	}
	acc, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return util.HexAddress{}, err
	}
	if len(acc) > 32 {
		return util.HexAddress{}, fmt.Errorf("owner %s is longer than 32 bytes", owner)
	}
	var out util.HexAddress
	copy(out[32-len(acc):], acc)
	return out, nil
}

// hexToOwner is the inverse of ownerToHex for 20 byte accounts.
func hexToOwner(addr util.HexAddress) (string, error) {
	if addr.IsZeroAddress() {
		return "", nil
	}
	for _, b := range addr[:12] {
		if b != 0 {
			return "", fmt.Errorf("%s is not a 20 byte account", addr)
		}
	}
	return sdk.AccAddress(addr[12:]).String(), nil
}
