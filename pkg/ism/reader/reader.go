// Package reader derives the configuration of deployed security modules by
// calling their read-only entry points.
package reader

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

const (
	DefaultMaxDepth    = 10
	DefaultConcurrency = 8
)

type Option func(r *Reader)

// Reader derives module configs through a Caller.
type Reader struct {
	caller      Caller
	known       config.KnownChains
	logger      log.Logger
	maxDepth    uint32
	concurrency int
}

func WithLogger(logger log.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithKnownChains restricts derived routing tables to domains known to the
// caller. Without it, or with a nil *config.Registry, every enrolled domain is
// derived.
func WithKnownChains(known config.KnownChains) Option {
	return func(r *Reader) {
		if reg, ok := known.(*config.Registry); ok && reg == nil {
			known = nil
		}
		r.known = known
	}
}

func WithMaxDepth(depth uint32) Option {
	return func(r *Reader) {
		r.maxDepth = depth
	}
}

// WithConcurrency bounds the number of submodules derived in parallel.
func WithConcurrency(n int) Option {
	return func(r *Reader) {
		r.concurrency = n
	}
}

func New(caller Caller, opts ...Option) *Reader {
	r := &Reader{
		caller:      caller,
		logger:      log.NewNopLogger(),
		maxDepth:    DefaultMaxDepth,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("module", "ism/reader")
	return r
}

// Derive reads the full config tree rooted at addr.
func (r *Reader) Derive(ctx context.Context, addr util.HexAddress) (config.Config, error) {
	return r.derive(ctx, addr, nil, r.maxDepth)
}

// DeriveForMessage reads only the part of the tree that verifies msg: routing
// modules resolve the route of msg instead of deriving every domain.
func (r *Reader) DeriveForMessage(ctx context.Context, addr util.HexAddress, msg util.HyperlaneMessage) (config.Config, error) {
	return r.derive(ctx, addr, &msg, r.maxDepth)
}

func (r *Reader) derive(ctx context.Context, addr util.HexAddress, msg *util.HyperlaneMessage, depth uint32) (config.Config, error) {
	moduleType, err := call[config.ModuleType](ctx, r.caller, addr, MethodModuleType)
	if err != nil {
		return nil, fail(addr, "unknown", err)
	}

	switch moduleType {
	case config.ModuleTypeRouting:
		if msg != nil {
			return r.deriveRoute(ctx, addr, *msg, depth)
		}
		return r.deriveRouting(ctx, addr, depth)
	case config.ModuleTypeAggregation:
		return r.deriveAggregation(ctx, addr, msg, depth)
	case config.ModuleTypeMerkleRootMultisig:
		return r.deriveMultisig(ctx, addr, config.MerkleRoot, msg)
	case config.ModuleTypeMessageIDMultisig:
		return r.deriveMultisig(ctx, addr, config.MessageID, msg)
	case config.ModuleTypeWeightedMerkleRootMultisig:
		return r.deriveWeightedMultisig(ctx, addr, config.MerkleRoot, msg)
	case config.ModuleTypeWeightedMessageIDMultisig:
		return r.deriveWeightedMultisig(ctx, addr, config.MessageID, msg)
	case config.ModuleTypeNull:
		return r.deriveNull(ctx, addr)
	case config.ModuleTypeArbL2ToL1:
		bridge, err := call[util.HexAddress](ctx, r.caller, addr, MethodArbBridge)
		if err != nil {
			return nil, fail(addr, moduleType.String(), err)
		}
		return &config.ArbL2ToL1Config{Address: addr, Bridge: bridge}, nil
	case config.ModuleTypeOpL2ToL1:
		return &config.OpStackConfig{Address: addr}, nil
	}
	return nil, fail(addr, moduleType.String(), errorsmod.Wrapf(ErrUnrecognizedModule, "module type %d", moduleType))
}

func (r *Reader) deriveAggregation(ctx context.Context, addr util.HexAddress, msg *util.HyperlaneMessage, depth uint32) (config.Config, error) {
	category := config.ModuleTypeAggregation.String()
	res, err := call[ModulesAndThreshold](ctx, r.caller, addr, MethodModulesAndThreshold, messageArgs(msg)...)
	if err != nil {
		return nil, fail(addr, category, err)
	}
	cfg := &config.AggregationConfig{Address: addr, Threshold: res.Threshold}
	if depth == 0 {
		r.logger.Debug("depth budget exhausted", "ism", addr.String(), "category", category)
		return cfg, nil
	}

	cfg.Modules = make([]config.Config, len(res.Modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, sub := range res.Modules {
		g.Go(func() error {
			subCfg, err := r.derive(gctx, sub, msg, depth-1)
			if err != nil {
				return err
			}
			cfg.Modules[i] = subCfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fail(addr, category, err)
	}
	return cfg, nil
}

func (r *Reader) deriveMultisig(ctx context.Context, addr util.HexAddress, variant config.MultisigKind, msg *util.HyperlaneMessage) (config.Config, error) {
	res, err := call[ValidatorsAndThreshold](ctx, r.caller, addr, MethodValidatorsAndThreshold, messageArgs(msg)...)
	if err != nil {
		return nil, fail(addr, variant.String()+" multisig", err)
	}
	return &config.MultisigConfig{
		Address:    addr,
		Variant:    variant,
		Validators: res.Validators,
		Threshold:  res.Threshold,
	}, nil
}

func (r *Reader) deriveWeightedMultisig(ctx context.Context, addr util.HexAddress, variant config.MultisigKind, msg *util.HyperlaneMessage) (config.Config, error) {
	res, err := call[WeightedValidatorsAndThreshold](ctx, r.caller, addr, MethodValidatorsAndThresholdWeight, messageArgs(msg)...)
	if err != nil {
		return nil, fail(addr, "weighted "+variant.String()+" multisig", err)
	}
	return &config.WeightedMultisigConfig{
		Address:         addr,
		Variant:         variant,
		Validators:      res.Validators,
		ThresholdWeight: res.ThresholdWeight,
	}, nil
}

func messageArgs(msg *util.HyperlaneMessage) []any {
	if msg == nil {
		return nil
	}
	return []any{*msg}
}
