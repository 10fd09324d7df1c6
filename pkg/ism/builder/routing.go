package builder

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/holiman/uint256"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

// tokenAmountOffset is where the transferred amount starts in a token
// message body: recipient(32) | amount(32) | metadata.
const tokenAmountOffset = 32

func (b *Builder) buildRouting(ctx context.Context, cfg *config.RoutingConfig, dctx DispatchContext, depth uint32) ([]byte, error) {
	if cfg.Variant == config.InterchainAccountRouting {
		return nil, errorsmod.Wrap(ErrUnsupportedModule, "interchain account routes cannot be enumerated")
	}
	origin := dctx.Message.Origin
	sub, ok := cfg.Domains[origin]
	if !ok {
		return nil, errorsmod.Wrapf(ErrNoRoute, "origin %d", origin)
	}
	return b.build(ctx, sub, dctx, depth-1)
}

func (b *Builder) buildAmountRouting(ctx context.Context, cfg *config.AmountRoutingConfig, dctx DispatchContext, depth uint32) ([]byte, error) {
	amount, err := TokenAmount(dctx.Message.Body)
	if err != nil {
		return nil, err
	}
	sub := cfg.Lower
	if cfg.Threshold != nil && !amount.Lt(cfg.Threshold) {
		sub = cfg.Upper
	}
	if sub == nil {
		return nil, errorsmod.Wrapf(config.ErrMissingModule, "amount routing at %s", amount.Dec())
	}
	b.logger.Debug("routing by amount", "amount", amount.Dec(), "kind", string(sub.Kind()))
	return b.build(ctx, sub, dctx, depth-1)
}

// TokenAmount reads the transferred amount of a token message body.
func TokenAmount(body []byte) (*uint256.Int, error) {
	if len(body) < tokenAmountOffset+32 {
		return nil, errorsmod.Wrapf(ErrInvalidTokenMessage, "body of %d bytes", len(body))
	}
	return new(uint256.Int).SetBytes32(body[tokenAmountOffset : tokenAmountOffset+32]), nil
}
