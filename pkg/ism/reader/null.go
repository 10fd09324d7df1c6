package reader

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

const nullCategory = "NULL"

// nullProbe tries to recognize one null module flavour. A nil config with a
// nil error means the module is not of that flavour.
type nullProbe func(ctx context.Context, r *Reader, addr util.HexAddress) (config.Config, error)

// nullProbes run in order; a module matching none of them is a test module.
var nullProbes = []nullProbe{
	probePausable,
	probeTrustedRelayer,
	probeCcip,
	probeOpStack,
}

func (r *Reader) deriveNull(ctx context.Context, addr util.HexAddress) (config.Config, error) {
	for _, probe := range nullProbes {
		cfg, err := probe(ctx, r, addr)
		if err != nil {
			return nil, fail(addr, nullCategory, err)
		}
		if cfg != nil {
			return cfg, nil
		}
	}
	return &config.TestConfig{Address: addr}, nil
}

// probeResult turns an expected probe failure into a miss.
func probeResult(err error) (matched bool, fatal error) {
	switch {
	case err == nil:
		return true, nil
	case isProbeFailure(err):
		return false, nil
	}
	return false, err
}

func probePausable(ctx context.Context, r *Reader, addr util.HexAddress) (config.Config, error) {
	paused, err := call[bool](ctx, r.caller, addr, MethodPaused)
	if ok, fatal := probeResult(err); !ok {
		return nil, fatal
	}
	owner, err := call[util.HexAddress](ctx, r.caller, addr, MethodOwner)
	if ok, fatal := probeResult(err); !ok {
		return nil, fatal
	}
	return &config.PausableConfig{Address: addr, Owner: owner, Paused: paused}, nil
}

func probeTrustedRelayer(ctx context.Context, r *Reader, addr util.HexAddress) (config.Config, error) {
	relayer, err := call[util.HexAddress](ctx, r.caller, addr, MethodTrustedRelayer)
	if ok, fatal := probeResult(err); !ok {
		return nil, fatal
	}
	return &config.TrustedRelayerConfig{Address: addr, Relayer: relayer}, nil
}

func probeCcip(ctx context.Context, r *Reader, addr util.HexAddress) (config.Config, error) {
	selector, err := call[uint64](ctx, r.caller, addr, MethodCcipOrigin)
	if ok, fatal := probeResult(err); !ok {
		return nil, fatal
	}
	chain, ok := CcipChainName(selector)
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnknownCcipOrigin, "selector %d", selector)
	}
	return &config.CcipConfig{Address: addr, OriginChain: chain}, nil
}

func probeOpStack(ctx context.Context, r *Reader, addr util.HexAddress) (config.Config, error) {
	_, err := r.caller.Call(ctx, addr, MethodVerifiedMaskIndex)
	if ok, fatal := probeResult(err); !ok {
		return nil, fatal
	}
	// the native bridge is not readable from the module
	return &config.OpStackConfig{Address: addr}, nil
}
