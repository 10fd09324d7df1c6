package ism

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	ismtypes "github.com/bcp-innovations/hyperlane-cosmos/x/core/01_interchain_security/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/reader"
)

// Caller answers reader calls from the ISMs stored in the hyperlane-cosmos
// ISM keeper.
type Caller struct {
	isms IsmStore
}

var _ reader.Caller = (*Caller)(nil)

func NewCaller(isms IsmStore) *Caller {
	return &Caller{isms: isms}
}

func (c *Caller) Call(ctx context.Context, module util.HexAddress, method reader.Method, args ...any) (any, error) {
	ism, err := c.isms.Get(ctx, module.GetInternalId())
	if err != nil {
		if errors.Is(err, collections.ErrNotFound) {
			return nil, errorsmod.Wrapf(ismtypes.ErrUnkownIsmId, "ISM %s not found", module)
		}
		return nil, errorsmod.Wrap(ismtypes.ErrUnexpectedError, err.Error())
	}

	if method == reader.MethodModuleType {
		return moduleType(ism), nil
	}

	switch ism := ism.(type) {
	case *ismtypes.RoutingISM:
		return callRouting(ism, method, args)
	case *ismtypes.MessageIdMultisigISM:
		if method == reader.MethodValidatorsAndThreshold {
			return validatorsAndThreshold(ism.Validators, ism.Threshold)
		}
	case *ismtypes.MerkleRootMultisigISM:
		if method == reader.MethodValidatorsAndThreshold {
			return validatorsAndThreshold(ism.Validators, ism.Threshold)
		}
	}
	return nil, errorsmod.Wrapf(reader.ErrProbeFailed, "%s is not supported by %T", method, ism)
}

func moduleType(ism ismtypes.HyperlaneInterchainSecurityModule) config.ModuleType {
	switch ism.(type) {
	case *ismtypes.RoutingISM:
		return config.ModuleTypeRouting
	case *ismtypes.MessageIdMultisigISM:
		return config.ModuleTypeMessageIDMultisig
	case *ismtypes.MerkleRootMultisigISM:
		return config.ModuleTypeMerkleRootMultisig
	case *ismtypes.NoopISM:
		return config.ModuleTypeNull
	}
	return config.ModuleType(ism.ModuleType())
}

func callRouting(ism *ismtypes.RoutingISM, method reader.Method, args []any) (any, error) {
	switch method {
	case reader.MethodOwner:
		return ownerToHex(ism.Owner)
	case reader.MethodDomains:
		domains := make([]uint32, 0, len(ism.Routes))
		for _, route := range ism.Routes {
			domains = append(domains, route.Domain)
		}
		return domains, nil
	case reader.MethodModule:
		domain, ok := argAt[uint32](args, 0)
		if !ok {
			return nil, errorsmod.Wrap(ismtypes.ErrUnexpectedError, "module expects a domain")
		}
		return lookupRoute(ism, domain)
	case reader.MethodRoute:
		msg, ok := argAt[util.HyperlaneMessage](args, 0)
		if !ok {
			return nil, errorsmod.Wrap(ismtypes.ErrUnexpectedError, "route expects a message")
		}
		return lookupRoute(ism, msg.Origin)
	}
	return nil, errorsmod.Wrapf(reader.ErrProbeFailed, "%s is not supported by routing ISMs", method)
}

func lookupRoute(ism *ismtypes.RoutingISM, domain uint32) (util.HexAddress, error) {
	for _, route := range ism.Routes {
		if route.Domain == domain {
			return route.Ism, nil
		}
	}
	return util.HexAddress{}, errorsmod.Wrapf(ismtypes.ErrUnkownIsmId, "no route for domain %d on %s", domain, ism.Id)
}

func validatorsAndThreshold(validators []string, threshold uint32) (reader.ValidatorsAndThreshold, error) {
	out := reader.ValidatorsAndThreshold{
		Validators: make([]common.Address, 0, len(validators)),
		Threshold:  threshold,
	}
	for _, v := range validators {
		addr, err := config.ParseValidator(v)
		if err != nil {
			return reader.ValidatorsAndThreshold{}, errorsmod.Wrap(ismtypes.ErrUnexpectedError, err.Error())
		}
		out.Validators = append(out.Validators, addr)
	}
	return out, nil
}

func argAt[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}
