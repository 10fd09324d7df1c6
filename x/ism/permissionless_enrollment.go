package ism

import (
	"context"
	"fmt"

	"cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	ismtypes "github.com/bcp-innovations/hyperlane-cosmos/x/core/01_interchain_security/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// PermissionlessISMEnrollment applies routing ISM changes under the
// permissionless ownership model:
//
//	module-owned  anyone may enroll new domains, existing routes are final
//	user-owned    only the owner may change routes or ownership
//	renounced     anyone may enroll new domains, existing routes are final
type PermissionlessISMEnrollment struct {
	isms       IsmStore
	moduleAddr string
}

func NewPermissionlessISMEnrollment(isms IsmStore, moduleName string) *PermissionlessISMEnrollment {
	return &PermissionlessISMEnrollment{
		isms:       isms,
		moduleAddr: authtypes.NewModuleAddress(moduleName).String(),
	}
}

// ModuleAddress returns the account that owns permissionless routing ISMs.
func (p *PermissionlessISMEnrollment) ModuleAddress() string {
	return p.moduleAddr
}

// CheckRouteOwnership reports whether signer may change the routes of
// routing. Permissionless routing ISMs accept anyone but only for domains that
// are not enrolled yet.
func (p *PermissionlessISMEnrollment) CheckRouteOwnership(routing *ismtypes.RoutingISM, signer string) (permissionless bool, err error) {
	switch routing.Owner {
	case p.moduleAddr, "":
		return true, nil
	case signer:
		return false, nil
	}
	return false, errors.Wrap(ismtypes.ErrInvalidOwner, fmt.Sprintf("%s does not own RoutingISM %s", signer, routing.Id.String()))
}

// SetRoutingIsmDomain enrolls req.Route on a routing ISM.
func (p *PermissionlessISMEnrollment) SetRoutingIsmDomain(
	ctx context.Context,
	req *ismtypes.MsgSetRoutingIsmDomain,
) (*ismtypes.MsgSetRoutingIsmDomainResponse, error) {
	routingISM, err := p.getRoutingIsm(ctx, req.IsmId)
	if err != nil {
		return nil, err
	}
	permissionless, err := p.CheckRouteOwnership(routingISM, req.Owner)
	if err != nil {
		return nil, err
	}

	exists, err := p.isms.Has(ctx, req.Route.Ism.GetInternalId())
	if err != nil || !exists {
		return nil, errors.Wrapf(ismtypes.ErrUnkownIsmId, "ISM %s not found", req.Route.Ism.String())
	}

	if permissionless {
		for _, route := range routingISM.Routes {
			if route.Domain == req.Route.Domain {
				return nil, fmt.Errorf("route already enrolled for domain %d (first-enrollment-wins)", req.Route.Domain)
			}
		}
	}

	routingISM.SetDomain(req.Route)
	if err = p.isms.Set(ctx, routingISM.Id.GetInternalId(), routingISM); err != nil {
		return nil, errors.Wrap(ismtypes.ErrUnexpectedError, err.Error())
	}

	_ = sdk.UnwrapSDKContext(ctx).EventManager().EmitTypedEvent(&ismtypes.EventSetRoutingIsmDomain{
		Owner:       req.Owner,
		IsmId:       req.IsmId,
		RouteIsmId:  req.Route.Ism,
		RouteDomain: req.Route.Domain,
	})

	return &ismtypes.MsgSetRoutingIsmDomainResponse{}, nil
}

// RemoveRoutingIsmDomain unenrolls a domain. Routes of permissionless routing
// ISMs are final and cannot be removed.
func (p *PermissionlessISMEnrollment) RemoveRoutingIsmDomain(
	ctx context.Context,
	req *ismtypes.MsgRemoveRoutingIsmDomain,
) (*ismtypes.MsgRemoveRoutingIsmDomainResponse, error) {
	routingISM, err := p.getRoutingIsm(ctx, req.IsmId)
	if err != nil {
		return nil, err
	}
	permissionless, err := p.CheckRouteOwnership(routingISM, req.Owner)
	if err != nil {
		return nil, err
	}
	if permissionless {
		return nil, errors.Wrapf(ismtypes.ErrInvalidOwner, "routes of RoutingISM %s cannot be removed", req.IsmId.String())
	}

	routes := routingISM.Routes[:0]
	found := false
	for _, route := range routingISM.Routes {
		if route.Domain == req.Domain {
			found = true
			continue
		}
		routes = append(routes, route)
	}
	if !found {
		return nil, fmt.Errorf("no route enrolled for domain %d", req.Domain)
	}
	routingISM.Routes = routes

	if err = p.isms.Set(ctx, routingISM.Id.GetInternalId(), routingISM); err != nil {
		return nil, errors.Wrap(ismtypes.ErrUnexpectedError, err.Error())
	}
	return &ismtypes.MsgRemoveRoutingIsmDomainResponse{}, nil
}

// UpdateRoutingIsmOwner transfers or renounces ownership of a user-owned
// routing ISM.
func (p *PermissionlessISMEnrollment) UpdateRoutingIsmOwner(
	ctx context.Context,
	req *ismtypes.MsgUpdateRoutingIsmOwner,
) (*ismtypes.MsgUpdateRoutingIsmOwnerResponse, error) {
	routingISM, err := p.getRoutingIsm(ctx, req.IsmId)
	if err != nil {
		return nil, err
	}
	if routingISM.Owner != req.Owner {
		return nil, errors.Wrap(ismtypes.ErrInvalidOwner, fmt.Sprintf("%s does not own RoutingISM %s", req.Owner, req.IsmId.String()))
	}

	newOwner := req.NewOwner
	if req.RenounceOwnership {
		newOwner = ""
	} else if newOwner == "" {
		return nil, errors.Wrap(ismtypes.ErrInvalidOwner, "new owner is empty")
	}
	routingISM.Owner = newOwner

	if err = p.isms.Set(ctx, routingISM.Id.GetInternalId(), routingISM); err != nil {
		return nil, errors.Wrap(ismtypes.ErrUnexpectedError, err.Error())
	}

	_ = sdk.UnwrapSDKContext(ctx).EventManager().EmitTypedEvent(&ismtypes.EventSetRoutingIsm{
		Owner:             req.Owner,
		IsmId:             req.IsmId,
		NewOwner:          newOwner,
		RenounceOwnership: req.RenounceOwnership,
	})

	return &ismtypes.MsgUpdateRoutingIsmOwnerResponse{}, nil
}

// TransferRoutingIsmOwnership hands a user-owned routing ISM to the module
// account, making its enrollment permissionless.
func (p *PermissionlessISMEnrollment) TransferRoutingIsmOwnership(
	ctx context.Context,
	ismId util.HexAddress,
	currentOwner string,
) error {
	_, err := p.UpdateRoutingIsmOwner(ctx, &ismtypes.MsgUpdateRoutingIsmOwner{
		IsmId:    ismId,
		Owner:    currentOwner,
		NewOwner: p.moduleAddr,
	})
	return err
}

// Apply executes msgs in order and stops at the first failure.
func (p *PermissionlessISMEnrollment) Apply(ctx context.Context, msgs []sdk.Msg) error {
	for i, msg := range msgs {
		var err error
		switch m := msg.(type) {
		case *ismtypes.MsgSetRoutingIsmDomain:
			_, err = p.SetRoutingIsmDomain(ctx, m)
		case *ismtypes.MsgRemoveRoutingIsmDomain:
			_, err = p.RemoveRoutingIsmDomain(ctx, m)
		case *ismtypes.MsgUpdateRoutingIsmOwner:
			_, err = p.UpdateRoutingIsmOwner(ctx, m)
		default:
			err = sdkerrors.ErrNotSupported.Wrapf("message %T", msg)
		}
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

func (p *PermissionlessISMEnrollment) getRoutingIsm(ctx context.Context, ismId util.HexAddress) (*ismtypes.RoutingISM, error) {
	ism, err := p.isms.Get(ctx, ismId.GetInternalId())
	if err != nil {
		return nil, errors.Wrap(ismtypes.ErrUnkownIsmId, fmt.Sprintf("RoutingISM %s not found", ismId.String()))
	}

	routingISM, ok := ism.(*ismtypes.RoutingISM)
	if !ok {
		return nil, errors.Wrap(ismtypes.ErrInvalidISMType, "ISM is not a RoutingISM")
	}

	return routingISM, nil
}
