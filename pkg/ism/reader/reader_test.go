package reader_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/reader"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCaller answers calls from a static table. Values of type
// func(args []any) (any, error) are invoked; error values are returned as
// errors; missing methods fail as probes.
type fakeCaller struct {
	mu      sync.Mutex
	modules map[util.HexAddress]map[reader.Method]any
	calls   map[reader.Method]int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		modules: make(map[util.HexAddress]map[reader.Method]any),
		calls:   make(map[reader.Method]int),
	}
}

func (f *fakeCaller) set(addr util.HexAddress, methods map[reader.Method]any) {
	f.modules[addr] = methods
}

func (f *fakeCaller) Call(_ context.Context, module util.HexAddress, method reader.Method, args ...any) (any, error) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()

	v, ok := f.modules[module][method]
	if !ok {
		return nil, errorsmod.Wrapf(reader.ErrProbeFailed, "%s on %s", method, module)
	}
	switch v := v.(type) {
	case func(args []any) (any, error):
		return v(args)
	case error:
		return nil, v
	}
	return v, nil
}

func addr(name string) util.HexAddress {
	return util.CreateMockHexAddress(name, 1)
}

var (
	validatorA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	validatorB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func multisigModule(f *fakeCaller, a util.HexAddress) {
	f.set(a, map[reader.Method]any{
		reader.MethodModuleType: config.ModuleTypeMessageIDMultisig,
		reader.MethodValidatorsAndThreshold: reader.ValidatorsAndThreshold{
			Validators: []common.Address{validatorA, validatorB},
			Threshold:  2,
		},
	})
}

func testModule(f *fakeCaller, a util.HexAddress) {
	f.set(a, map[reader.Method]any{reader.MethodModuleType: config.ModuleTypeNull})
}

func routingModule(f *fakeCaller, a util.HexAddress, routes map[uint32]util.HexAddress, extra map[reader.Method]any) {
	domains := make([]uint32, 0, len(routes))
	for d := range routes {
		domains = append(domains, d)
	}
	methods := map[reader.Method]any{
		reader.MethodModuleType: config.ModuleTypeRouting,
		reader.MethodOwner:      addr("owner"),
		reader.MethodDomains:    domains,
		reader.MethodModule: func(args []any) (any, error) {
			sub, ok := routes[args[0].(uint32)]
			if !ok {
				return nil, errors.New("no route")
			}
			return sub, nil
		},
	}
	for m, v := range extra {
		methods[m] = v
	}
	f.set(a, methods)
}

func TestDeriveMultisig(t *testing.T) {
	f := newFakeCaller()
	multisigModule(f, addr("multisig"))

	cfg, err := reader.New(f).Derive(context.Background(), addr("multisig"))
	require.NoError(t, err)
	require.Equal(t, &config.MultisigConfig{
		Address:    addr("multisig"),
		Variant:    config.MessageID,
		Validators: []common.Address{validatorA, validatorB},
		Threshold:  2,
	}, cfg)
}

func TestDeriveWeightedMultisig(t *testing.T) {
	f := newFakeCaller()
	f.set(addr("weighted"), map[reader.Method]any{
		reader.MethodModuleType: config.ModuleTypeWeightedMerkleRootMultisig,
		reader.MethodValidatorsAndThresholdWeight: reader.WeightedValidatorsAndThreshold{
			Validators:      []config.WeightedValidator{{Signer: validatorA, Weight: 7}},
			ThresholdWeight: 5,
		},
	})

	cfg, err := reader.New(f).Derive(context.Background(), addr("weighted"))
	require.NoError(t, err)
	weighted, ok := cfg.(*config.WeightedMultisigConfig)
	require.True(t, ok)
	require.Equal(t, config.MerkleRoot, weighted.Variant)
	require.Equal(t, uint64(5), weighted.ThresholdWeight)
}

func TestDeriveDomainRouting(t *testing.T) {
	f := newFakeCaller()
	multisigModule(f, addr("multisig"))
	testModule(f, addr("test"))
	routingModule(f, addr("routing"), map[uint32]util.HexAddress{
		1:  addr("multisig"),
		2:  addr("test"),
		99: addr("unknown"),
	}, nil)

	known := config.NewRegistry(map[string]uint32{"alpha": 1, "beta": 2})
	cfg, err := reader.New(f, reader.WithKnownChains(known)).Derive(context.Background(), addr("routing"))
	require.NoError(t, err)

	routing, ok := cfg.(*config.RoutingConfig)
	require.True(t, ok)
	require.Equal(t, config.DomainRouting, routing.Variant)
	require.Equal(t, addr("owner"), routing.Owner)
	require.Len(t, routing.Domains, 2)
	require.Equal(t, config.KindMessageIDMultisig, routing.Domains[1].Kind())
	require.Equal(t, config.KindTest, routing.Domains[2].Kind())

	// without a registry the unknown domain is derived and its module is missing
	var none *config.Registry
	for _, r := range []*reader.Reader{reader.New(f), reader.New(f, reader.WithKnownChains(none))} {
		_, err = r.Derive(context.Background(), addr("routing"))
		require.ErrorIs(t, err, reader.ErrProbeFailed)
		var derr *reader.DerivationError
		require.ErrorAs(t, err, &derr)
		require.Equal(t, addr("unknown"), derr.Address)
	}
}

func TestDeriveFallbackRouting(t *testing.T) {
	f := newFakeCaller()
	testModule(f, addr("test"))
	routingModule(f, addr("routing"), map[uint32]util.HexAddress{1: addr("test")}, map[reader.Method]any{
		reader.MethodMailbox: addr("mailbox"),
	})

	cfg, err := reader.New(f).Derive(context.Background(), addr("routing"))
	require.NoError(t, err)
	routing := cfg.(*config.RoutingConfig)
	require.Equal(t, config.FallbackRouting, routing.Variant)
	require.Equal(t, addr("mailbox"), routing.Mailbox)
	require.Equal(t, config.KindFallbackRouting, routing.Kind())
}

func TestDeriveAmountRouting(t *testing.T) {
	f := newFakeCaller()
	testModule(f, addr("lower"))
	multisigModule(f, addr("upper"))
	f.set(addr("amount"), map[reader.Method]any{
		reader.MethodModuleType: config.ModuleTypeRouting,
		reader.MethodLower:      addr("lower"),
		reader.MethodUpper:      addr("upper"),
		reader.MethodThreshold:  uint256.NewInt(1000),
	})

	cfg, err := reader.New(f).Derive(context.Background(), addr("amount"))
	require.NoError(t, err)
	amount, ok := cfg.(*config.AmountRoutingConfig)
	require.True(t, ok)
	require.Equal(t, uint64(1000), amount.Threshold.Uint64())
	require.Equal(t, config.KindTest, amount.Lower.Kind())
	require.Equal(t, config.KindMessageIDMultisig, amount.Upper.Kind())
}

func TestDeriveInterchainAccountRouting(t *testing.T) {
	t.Run("legacy router without owner", func(t *testing.T) {
		f := newFakeCaller()
		f.set(addr("ica"), map[reader.Method]any{reader.MethodModuleType: config.ModuleTypeRouting})

		cfg, err := reader.New(f).Derive(context.Background(), addr("ica"))
		require.NoError(t, err)
		require.Equal(t, config.KindInterchainAccountRouting, cfg.Kind())
		require.Empty(t, cfg.(*config.RoutingConfig).Domains)
	})

	t.Run("router with marker", func(t *testing.T) {
		f := newFakeCaller()
		f.set(addr("ica"), map[reader.Method]any{
			reader.MethodModuleType:  config.ModuleTypeRouting,
			reader.MethodOwner:       addr("owner"),
			reader.MethodCcipReadIsm: addr("ccip"),
		})

		cfg, err := reader.New(f).Derive(context.Background(), addr("ica"))
		require.NoError(t, err)
		require.Equal(t, config.KindInterchainAccountRouting, cfg.Kind())
		require.Equal(t, addr("owner"), cfg.(*config.RoutingConfig).Owner)
	})

	t.Run("owner without domains or marker", func(t *testing.T) {
		f := newFakeCaller()
		f.set(addr("odd"), map[reader.Method]any{
			reader.MethodModuleType: config.ModuleTypeRouting,
			reader.MethodOwner:      addr("owner"),
		})

		_, err := reader.New(f).Derive(context.Background(), addr("odd"))
		require.ErrorIs(t, err, reader.ErrUnrecognizedRoutingModule)
		var derr *reader.DerivationError
		require.ErrorAs(t, err, &derr)
		require.Equal(t, addr("odd"), derr.Address)
		require.Equal(t, "ROUTING", derr.Category)
	})
}

func TestDeriveNullProbes(t *testing.T) {
	tests := []struct {
		name     string
		methods  map[reader.Method]any
		expected config.Config
		expError error
	}{
		{
			name:     "no probe matches",
			methods:  map[reader.Method]any{},
			expected: &config.TestConfig{Address: addr("null")},
		},
		{
			name: "pausable",
			methods: map[reader.Method]any{
				reader.MethodPaused: true,
				reader.MethodOwner:  addr("owner"),
				// later probes are never reached
				reader.MethodTrustedRelayer: addr("relayer"),
			},
			expected: &config.PausableConfig{Address: addr("null"), Owner: addr("owner"), Paused: true},
		},
		{
			name: "paused without owner is not pausable",
			methods: map[reader.Method]any{
				reader.MethodPaused:         false,
				reader.MethodTrustedRelayer: addr("relayer"),
			},
			expected: &config.TrustedRelayerConfig{Address: addr("null"), Relayer: addr("relayer")},
		},
		{
			name:     "ccip",
			methods:  map[reader.Method]any{reader.MethodCcipOrigin: uint64(5009297550715157269)},
			expected: &config.CcipConfig{Address: addr("null"), OriginChain: "ethereum"},
		},
		{
			name:     "unknown ccip selector",
			methods:  map[reader.Method]any{reader.MethodCcipOrigin: uint64(42)},
			expError: reader.ErrUnknownCcipOrigin,
		},
		{
			name:     "op stack",
			methods:  map[reader.Method]any{reader.MethodVerifiedMaskIndex: uint64(255)},
			expected: &config.OpStackConfig{Address: addr("null")},
		},
		{
			name:     "unexpected failure aborts the chain",
			methods:  map[reader.Method]any{reader.MethodPaused: errors.New("connection refused")},
			expError: errors.New("connection refused"),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeCaller()
			tc.methods[reader.MethodModuleType] = config.ModuleTypeNull
			f.set(addr("null"), tc.methods)

			cfg, err := reader.New(f).Derive(context.Background(), addr("null"))
			if tc.expError != nil {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.expError.Error())
				var derr *reader.DerivationError
				require.ErrorAs(t, err, &derr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, cfg)
		})
	}
}

func TestDeriveAggregation(t *testing.T) {
	f := newFakeCaller()
	multisigModule(f, addr("multisig"))
	testModule(f, addr("test"))
	routingModule(f, addr("routing"), map[uint32]util.HexAddress{1: addr("test")}, nil)
	f.set(addr("agg"), map[reader.Method]any{
		reader.MethodModuleType: config.ModuleTypeAggregation,
		reader.MethodModulesAndThreshold: reader.ModulesAndThreshold{
			Modules:   []util.HexAddress{addr("routing"), addr("multisig"), addr("test")},
			Threshold: 2,
		},
	})

	cfg, err := reader.New(f, reader.WithConcurrency(1)).Derive(context.Background(), addr("agg"))
	require.NoError(t, err)
	agg := cfg.(*config.AggregationConfig)
	require.Equal(t, uint32(2), agg.Threshold)
	require.Len(t, agg.Modules, 3)
	require.Equal(t, config.KindDomainRouting, agg.Modules[0].Kind())
	require.Equal(t, config.KindMessageIDMultisig, agg.Modules[1].Kind())
	require.Equal(t, config.KindTest, agg.Modules[2].Kind())
	require.Len(t, agg.Modules[0].(*config.RoutingConfig).Domains, 1)

	// with a budget of one the routing child keeps only its shape
	cfg, err = reader.New(f, reader.WithMaxDepth(1)).Derive(context.Background(), addr("agg"))
	require.NoError(t, err)
	agg = cfg.(*config.AggregationConfig)
	require.Empty(t, agg.Modules[0].(*config.RoutingConfig).Domains)
	require.Equal(t, config.KindMessageIDMultisig, agg.Modules[1].Kind())

	cfg, err = reader.New(f, reader.WithMaxDepth(0)).Derive(context.Background(), addr("agg"))
	require.NoError(t, err)
	require.Empty(t, cfg.(*config.AggregationConfig).Modules)
}

func TestDeriveForMessage(t *testing.T) {
	f := newFakeCaller()
	multisigModule(f, addr("multisig"))
	msg := util.HyperlaneMessage{Version: 3, Origin: 7, Destination: 1}
	f.set(addr("routing"), map[reader.Method]any{
		reader.MethodModuleType: config.ModuleTypeRouting,
		reader.MethodRoute: func(args []any) (any, error) {
			require.Equal(t, msg, args[0])
			return addr("multisig"), nil
		},
	})

	cfg, err := reader.New(f).DeriveForMessage(context.Background(), addr("routing"), msg)
	require.NoError(t, err)
	routing := cfg.(*config.RoutingConfig)
	require.Len(t, routing.Domains, 1)
	require.Equal(t, config.KindMessageIDMultisig, routing.Domains[7].Kind())
	require.Zero(t, f.calls[reader.MethodDomains])
	require.Zero(t, f.calls[reader.MethodOwner])
}

func TestDeriveErrors(t *testing.T) {
	f := newFakeCaller()
	f.set(addr("legacy"), map[reader.Method]any{reader.MethodModuleType: config.ModuleTypeLegacyMultisig})
	f.set(addr("broken"), map[reader.Method]any{
		reader.MethodModuleType:             config.ModuleTypeMessageIDMultisig,
		reader.MethodValidatorsAndThreshold: "not a validator set",
	})
	f.set(addr("silent"), map[reader.Method]any{reader.MethodModuleType: config.ModuleTypeMerkleRootMultisig})

	r := reader.New(f)
	_, err := r.Derive(context.Background(), addr("legacy"))
	require.ErrorIs(t, err, reader.ErrUnrecognizedModule)

	_, err = r.Derive(context.Background(), addr("broken"))
	require.ErrorIs(t, err, reader.ErrUnexpectedResult)

	// a known category failing its accessor is fatal
	_, err = r.Derive(context.Background(), addr("silent"))
	require.ErrorIs(t, err, reader.ErrProbeFailed)
	var derr *reader.DerivationError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, addr("silent"), derr.Address)

	_, err = r.Derive(context.Background(), addr("missing"))
	require.ErrorIs(t, err, reader.ErrProbeFailed)
}

func TestCcipChainName(t *testing.T) {
	name, ok := reader.CcipChainName(4949039107694359620)
	require.True(t, ok)
	require.Equal(t, "arbitrum", name)

	_, ok = reader.CcipChainName(1)
	require.False(t, ok)
}
