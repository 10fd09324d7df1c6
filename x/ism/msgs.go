package ism

import (
	"fmt"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	ismtypes "github.com/bcp-innovations/hyperlane-cosmos/x/core/01_interchain_security/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/reconcile"
)

// Resolver returns the id of an ISM deployed from cfg, deploying it first if
// needed.
type Resolver func(cfg config.Config) (util.HexAddress, error)

// Msgs turns reconcile operations into hyperlane-cosmos messages signed by
// signer, in operation order.
func Msgs(ops []reconcile.Operation, signer string, resolve Resolver) ([]sdk.Msg, error) {
	msgs := make([]sdk.Msg, 0, len(ops))
	for _, op := range ops {
		switch o := op.(type) {
		case reconcile.EnrollDomain:
			if resolve == nil {
				return nil, fmt.Errorf("%s: no resolver for the route target", o)
			}
			target, err := resolve(o.Target)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", o, err)
			}
			msgs = append(msgs, &ismtypes.MsgSetRoutingIsmDomain{
				IsmId: o.Module,
				Route: ismtypes.Route{Domain: o.Domain, Ism: target},
				Owner: signer,
			})
		case reconcile.UnenrollDomain:
			msgs = append(msgs, &ismtypes.MsgRemoveRoutingIsmDomain{
				IsmId:  o.Module,
				Domain: o.Domain,
				Owner:  signer,
			})
		case reconcile.TransferOwnership:
			newOwner, err := hexToOwner(o.NewOwner)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", o, err)
			}
			msgs = append(msgs, &ismtypes.MsgUpdateRoutingIsmOwner{
				IsmId:             o.Module,
				Owner:             signer,
				NewOwner:          newOwner,
				RenounceOwnership: newOwner == "",
			})
		default:
			return nil, sdkerrors.ErrNotSupported.Wrapf("%s has no hyperlane-cosmos message", op)
		}
	}
	return msgs, nil
}
