package ism

import (
	"context"

	ismtypes "github.com/bcp-innovations/hyperlane-cosmos/x/core/01_interchain_security/types"
)

// IsmStore is the ISM collection of the hyperlane-cosmos ISM keeper, keyed by
// internal id. The keeper's GetIsms() satisfies it.
type IsmStore interface {
	Get(ctx context.Context, id uint64) (ismtypes.HyperlaneInterchainSecurityModule, error)
	Set(ctx context.Context, id uint64, ism ismtypes.HyperlaneInterchainSecurityModule) error
	Has(ctx context.Context, id uint64) (bool, error)
}
