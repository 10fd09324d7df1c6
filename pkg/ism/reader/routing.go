package reader

import (
	"context"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

const routingCategory = "ROUTING"

// deriveRouting tells the routing flavours apart:
//
//	owner ok, domains ok      domain routing, fallback routing if mailbox() answers
//	owner failed              amount routing, else the interchain account placeholder
//	owner ok, domains failed  interchain account routing if CCIP_READ_ISM answers
func (r *Reader) deriveRouting(ctx context.Context, addr util.HexAddress, depth uint32) (config.Config, error) {
	if depth == 0 {
		r.logger.Debug("depth budget exhausted", "ism", addr.String(), "category", routingCategory)
		return &config.RoutingConfig{Address: addr, Domains: map[uint32]config.Config{}}, nil
	}

	var (
		owner               util.HexAddress
		domains             []uint32
		ownerErr, domainErr error
		g                   errgroup.Group
	)
	g.Go(func() error {
		owner, ownerErr = call[util.HexAddress](ctx, r.caller, addr, MethodOwner)
		return nil
	})
	g.Go(func() error {
		domains, domainErr = call[[]uint32](ctx, r.caller, addr, MethodDomains)
		return nil
	})
	_ = g.Wait()

	switch {
	case ownerErr == nil && domainErr == nil:
		return r.deriveDomainRouting(ctx, addr, owner, domains, depth)
	case ownerErr != nil:
		if !isProbeFailure(ownerErr) {
			return nil, fail(addr, routingCategory, ownerErr)
		}
		return r.deriveAmountRouting(ctx, addr, depth)
	default:
		if !isProbeFailure(domainErr) {
			return nil, fail(addr, routingCategory, domainErr)
		}
		if _, err := r.caller.Call(ctx, addr, MethodCcipReadIsm); err != nil {
			if isProbeFailure(err) {
				err = errorsmod.Wrap(ErrUnrecognizedRoutingModule, err.Error())
			}
			return nil, fail(addr, routingCategory, err)
		}
		return &config.RoutingConfig{
			Address: addr,
			Variant: config.InterchainAccountRouting,
			Owner:   owner,
			Domains: map[uint32]config.Config{},
		}, nil
	}
}

func (r *Reader) deriveDomainRouting(ctx context.Context, addr, owner util.HexAddress, domains []uint32, depth uint32) (config.Config, error) {
	cfg := &config.RoutingConfig{
		Address: addr,
		Variant: config.DomainRouting,
		Owner:   owner,
		Domains: make(map[uint32]config.Config, len(domains)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, domain := range domains {
		if r.known != nil && !r.known.Has(domain) {
			r.logger.Warn("skipping unknown domain", "ism", addr.String(), "domain", domain)
			continue
		}
		g.Go(func() error {
			sub, err := call[util.HexAddress](gctx, r.caller, addr, MethodModule, domain)
			if err != nil {
				return err
			}
			subCfg, err := r.derive(gctx, sub, nil, depth-1)
			if err != nil {
				return err
			}
			mu.Lock()
			cfg.Domains[domain] = subCfg
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fail(addr, routingCategory, err)
	}

	mailbox, err := call[util.HexAddress](ctx, r.caller, addr, MethodMailbox)
	switch {
	case err == nil:
		cfg.Variant = config.FallbackRouting
		cfg.Mailbox = mailbox
	case !isProbeFailure(err):
		return nil, fail(addr, routingCategory, err)
	}
	return cfg, nil
}

func (r *Reader) deriveAmountRouting(ctx context.Context, addr util.HexAddress, depth uint32) (config.Config, error) {
	lower, lowerErr := call[util.HexAddress](ctx, r.caller, addr, MethodLower)
	upper, upperErr := call[util.HexAddress](ctx, r.caller, addr, MethodUpper)
	threshold, thresholdErr := call[*uint256.Int](ctx, r.caller, addr, MethodThreshold)
	for _, err := range []error{lowerErr, upperErr, thresholdErr} {
		if err == nil {
			continue
		}
		if !isProbeFailure(err) {
			return nil, fail(addr, routingCategory, err)
		}
		r.logger.Debug("routing module without owner, assuming interchain account routing", "ism", addr.String())
		return &config.RoutingConfig{
			Address: addr,
			Variant: config.InterchainAccountRouting,
			Domains: map[uint32]config.Config{},
		}, nil
	}

	cfg := &config.AmountRoutingConfig{Address: addr, Threshold: threshold}
	var g errgroup.Group
	g.Go(func() (err error) {
		cfg.Lower, err = r.derive(ctx, lower, nil, depth-1)
		return err
	})
	g.Go(func() (err error) {
		cfg.Upper, err = r.derive(ctx, upper, nil, depth-1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fail(addr, routingCategory, err)
	}
	return cfg, nil
}

// deriveRoute derives only the submodule that route(msg) selects. The result
// is a domain routing config with a single entry for the message origin.
func (r *Reader) deriveRoute(ctx context.Context, addr util.HexAddress, msg util.HyperlaneMessage, depth uint32) (config.Config, error) {
	cfg := &config.RoutingConfig{Address: addr, Domains: map[uint32]config.Config{}}
	if depth == 0 {
		return cfg, nil
	}
	sub, err := call[util.HexAddress](ctx, r.caller, addr, MethodRoute, msg)
	if err != nil {
		return nil, fail(addr, routingCategory, err)
	}
	subCfg, err := r.derive(ctx, sub, &msg, depth-1)
	if err != nil {
		return nil, fail(addr, routingCategory, err)
	}
	cfg.Domains[msg.Origin] = subCfg
	return cfg, nil
}
