// Package config defines the security module configuration tree shared by the
// metadata builder, the on-chain reader and the reconciliation engine.
//
// A Config is either derived (read from chain, carries a non-zero address) or
// declared (written by an operator, zero address).
package config

import (
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ModuleType is the on-chain module type tag returned by moduleType().
type ModuleType uint8

const (
	ModuleTypeUnused ModuleType = iota
	ModuleTypeRouting
	ModuleTypeAggregation
	ModuleTypeLegacyMultisig
	ModuleTypeMerkleRootMultisig
	ModuleTypeMessageIDMultisig
	ModuleTypeNull
	ModuleTypeCcipRead
	ModuleTypeArbL2ToL1
	ModuleTypeWeightedMerkleRootMultisig
	ModuleTypeWeightedMessageIDMultisig
	ModuleTypeOpL2ToL1
)

var moduleTypeNames = map[ModuleType]string{
	ModuleTypeUnused:                     "UNUSED",
	ModuleTypeRouting:                    "ROUTING",
	ModuleTypeAggregation:                "AGGREGATION",
	ModuleTypeLegacyMultisig:             "LEGACY_MULTISIG",
	ModuleTypeMerkleRootMultisig:         "MERKLE_ROOT_MULTISIG",
	ModuleTypeMessageIDMultisig:          "MESSAGE_ID_MULTISIG",
	ModuleTypeNull:                       "NULL",
	ModuleTypeCcipRead:                   "CCIP_READ",
	ModuleTypeArbL2ToL1:                  "ARB_L2_TO_L1",
	ModuleTypeWeightedMerkleRootMultisig: "WEIGHTED_MERKLE_ROOT_MULTISIG",
	ModuleTypeWeightedMessageIDMultisig:  "WEIGHTED_MESSAGE_ID_MULTISIG",
	ModuleTypeOpL2ToL1:                   "OP_L2_TO_L1",
}

func (t ModuleType) String() string {
	if name, ok := moduleTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Kind identifies a configuration variant.
type Kind string

const (
	KindMerkleRootMultisig         Kind = "merkleRootMultisigIsm"
	KindMessageIDMultisig          Kind = "messageIdMultisigIsm"
	KindWeightedMerkleRootMultisig Kind = "weightedMerkleRootMultisigIsm"
	KindWeightedMessageIDMultisig  Kind = "weightedMessageIdMultisigIsm"
	KindDomainRouting              Kind = "domainRoutingIsm"
	KindFallbackRouting            Kind = "defaultFallbackRoutingIsm"
	KindInterchainAccountRouting   Kind = "interchainAccountRouting"
	KindAggregation                Kind = "staticAggregationIsm"
	KindAmountRouting              Kind = "amountRoutingIsm"
	KindTest                       Kind = "testIsm"
	KindPausable                   Kind = "pausableIsm"
	KindTrustedRelayer             Kind = "trustedRelayerIsm"
	KindOpStack                    Kind = "opStackIsm"
	KindCcip                       Kind = "ccipIsm"
	KindArbL2ToL1                  Kind = "arbL2ToL1Ism"
)

// Mutable reports whether a deployed module of this kind can be updated in place.
func (k Kind) Mutable() bool {
	switch k {
	case KindDomainRouting, KindFallbackRouting, KindPausable:
		return true
	}
	return false
}

// Config is a node of the security module configuration tree.
type Config interface {
	Kind() Kind
	ModuleType() ModuleType
	// GetAddress returns the on-chain address; zero for declared configs.
	GetAddress() util.HexAddress
	isConfig()
}

// MultisigKind selects the metadata layout of a multisig module.
type MultisigKind uint8

const (
	MerkleRoot MultisigKind = iota
	MessageID
)

func (k MultisigKind) String() string {
	if k == MerkleRoot {
		return "merkle-root"
	}
	return "message-id"
}

type MultisigConfig struct {
	Address    util.HexAddress
	Variant    MultisigKind
	Validators []common.Address
	Threshold  uint32
}

func (c *MultisigConfig) Kind() Kind {
	if c.Variant == MerkleRoot {
		return KindMerkleRootMultisig
	}
	return KindMessageIDMultisig
}

func (c *MultisigConfig) ModuleType() ModuleType {
	if c.Variant == MerkleRoot {
		return ModuleTypeMerkleRootMultisig
	}
	return ModuleTypeMessageIDMultisig
}

func (c *MultisigConfig) GetAddress() util.HexAddress { return c.Address }
func (*MultisigConfig) isConfig()                     {}

type WeightedValidator struct {
	Signer common.Address
	Weight uint64
}

type WeightedMultisigConfig struct {
	Address         util.HexAddress
	Variant         MultisigKind
	Validators      []WeightedValidator
	ThresholdWeight uint64
}

func (c *WeightedMultisigConfig) Kind() Kind {
	if c.Variant == MerkleRoot {
		return KindWeightedMerkleRootMultisig
	}
	return KindWeightedMessageIDMultisig
}

func (c *WeightedMultisigConfig) ModuleType() ModuleType {
	if c.Variant == MerkleRoot {
		return ModuleTypeWeightedMerkleRootMultisig
	}
	return ModuleTypeWeightedMessageIDMultisig
}

func (c *WeightedMultisigConfig) GetAddress() util.HexAddress { return c.Address }
func (*WeightedMultisigConfig) isConfig()                     {}

// TotalWeight sums the weights of all validators.
func (c *WeightedMultisigConfig) TotalWeight() uint64 {
	var total uint64
	for _, v := range c.Validators {
		total += v.Weight
	}
	return total
}

// RoutingVariant distinguishes the routing module flavours.
type RoutingVariant uint8

const (
	DomainRouting RoutingVariant = iota
	FallbackRouting
	// InterchainAccountRouting is a placeholder for routers whose routes
	// cannot be enumerated; Domains is always empty.
	InterchainAccountRouting
)

type RoutingConfig struct {
	Address util.HexAddress
	Variant RoutingVariant
	Owner   util.HexAddress
	// Mailbox is set for FallbackRouting only.
	Mailbox util.HexAddress
	Domains map[uint32]Config
}

func (c *RoutingConfig) Kind() Kind {
	switch c.Variant {
	case FallbackRouting:
		return KindFallbackRouting
	case InterchainAccountRouting:
		return KindInterchainAccountRouting
	}
	return KindDomainRouting
}

func (*RoutingConfig) ModuleType() ModuleType        { return ModuleTypeRouting }
func (c *RoutingConfig) GetAddress() util.HexAddress { return c.Address }
func (*RoutingConfig) isConfig()                     {}

type AggregationConfig struct {
	Address   util.HexAddress
	Modules   []Config
	Threshold uint32
}

func (*AggregationConfig) Kind() Kind                    { return KindAggregation }
func (*AggregationConfig) ModuleType() ModuleType        { return ModuleTypeAggregation }
func (c *AggregationConfig) GetAddress() util.HexAddress { return c.Address }
func (*AggregationConfig) isConfig()                     {}

// AmountRoutingConfig routes token transfers to Upper when the transferred
// amount is at least Threshold, otherwise to Lower.
type AmountRoutingConfig struct {
	Address   util.HexAddress
	Lower     Config
	Upper     Config
	Threshold *uint256.Int
}

func (*AmountRoutingConfig) Kind() Kind                    { return KindAmountRouting }
func (*AmountRoutingConfig) ModuleType() ModuleType        { return ModuleTypeRouting }
func (c *AmountRoutingConfig) GetAddress() util.HexAddress { return c.Address }
func (*AmountRoutingConfig) isConfig()                     {}

type TestConfig struct {
	Address util.HexAddress
}

func (*TestConfig) Kind() Kind                    { return KindTest }
func (*TestConfig) ModuleType() ModuleType        { return ModuleTypeNull }
func (c *TestConfig) GetAddress() util.HexAddress { return c.Address }
func (*TestConfig) isConfig()                     {}

type PausableConfig struct {
	Address util.HexAddress
	Owner   util.HexAddress
	Paused  bool
}

func (*PausableConfig) Kind() Kind                    { return KindPausable }
func (*PausableConfig) ModuleType() ModuleType        { return ModuleTypeNull }
func (c *PausableConfig) GetAddress() util.HexAddress { return c.Address }
func (*PausableConfig) isConfig()                     {}

type TrustedRelayerConfig struct {
	Address util.HexAddress
	Relayer util.HexAddress
}

func (*TrustedRelayerConfig) Kind() Kind                    { return KindTrustedRelayer }
func (*TrustedRelayerConfig) ModuleType() ModuleType        { return ModuleTypeNull }
func (c *TrustedRelayerConfig) GetAddress() util.HexAddress { return c.Address }
func (*TrustedRelayerConfig) isConfig()                     {}

// OpStackConfig leaves NativeBridge empty when derived; the bridge is not
// readable from the module.
type OpStackConfig struct {
	Address      util.HexAddress
	NativeBridge util.HexAddress
}

func (*OpStackConfig) Kind() Kind                    { return KindOpStack }
func (*OpStackConfig) ModuleType() ModuleType        { return ModuleTypeNull }
func (c *OpStackConfig) GetAddress() util.HexAddress { return c.Address }
func (*OpStackConfig) isConfig()                     {}

type CcipConfig struct {
	Address     util.HexAddress
	OriginChain string
}

func (*CcipConfig) Kind() Kind                    { return KindCcip }
func (*CcipConfig) ModuleType() ModuleType        { return ModuleTypeNull }
func (c *CcipConfig) GetAddress() util.HexAddress { return c.Address }
func (*CcipConfig) isConfig()                     {}

type ArbL2ToL1Config struct {
	Address util.HexAddress
	Bridge  util.HexAddress
}

func (*ArbL2ToL1Config) Kind() Kind                    { return KindArbL2ToL1 }
func (*ArbL2ToL1Config) ModuleType() ModuleType        { return ModuleTypeArbL2ToL1 }
func (c *ArbL2ToL1Config) GetAddress() util.HexAddress { return c.Address }
func (*ArbL2ToL1Config) isConfig()                     {}

// IsDerived reports whether cfg was read from chain.
func IsDerived(cfg Config) bool {
	return cfg != nil && !cfg.GetAddress().IsZeroAddress()
}
