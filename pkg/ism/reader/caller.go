package reader

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

// Method names a read-only module entry point.
type Method string

const (
	MethodModuleType                   Method = "moduleType"
	MethodOwner                        Method = "owner"
	MethodDomains                      Method = "domains"
	MethodModule                       Method = "module"
	MethodMailbox                      Method = "mailbox"
	MethodRoute                        Method = "route"
	MethodLower                        Method = "lower"
	MethodUpper                        Method = "upper"
	MethodThreshold                    Method = "threshold"
	MethodCcipReadIsm                  Method = "CCIP_READ_ISM"
	MethodModulesAndThreshold          Method = "modulesAndThreshold"
	MethodValidatorsAndThreshold       Method = "validatorsAndThreshold"
	MethodValidatorsAndThresholdWeight Method = "validatorsAndThresholdWeight"
	MethodPaused                       Method = "paused"
	MethodTrustedRelayer               Method = "trustedRelayer"
	MethodCcipOrigin                   Method = "ccipOrigin"
	MethodVerifiedMaskIndex            Method = "VERIFIED_MASK_INDEX"
	MethodArbBridge                    Method = "arbBridge"
)

// Caller performs read-only calls against on-chain modules. A call the module
// does not support must return an error wrapping ErrProbeFailed; any other
// error is treated as fatal.
//
// Results are typed by method:
//
//	moduleType                   config.ModuleType
//	owner, module, mailbox,
//	route, lower, upper,
//	trustedRelayer, arbBridge    util.HexAddress
//	domains                      []uint32
//	threshold                    *uint256.Int
//	paused                       bool
//	ccipOrigin                   uint64
//	CCIP_READ_ISM,
//	VERIFIED_MASK_INDEX          any non-error result
//	modulesAndThreshold          ModulesAndThreshold
//	validatorsAndThreshold       ValidatorsAndThreshold
//	validatorsAndThresholdWeight WeightedValidatorsAndThreshold
type Caller interface {
	Call(ctx context.Context, module util.HexAddress, method Method, args ...any) (any, error)
}

type ValidatorsAndThreshold struct {
	Validators []common.Address
	Threshold  uint32
}

type ModulesAndThreshold struct {
	Modules   []util.HexAddress
	Threshold uint32
}

type WeightedValidatorsAndThreshold struct {
	Validators      []config.WeightedValidator
	ThresholdWeight uint64
}

// ccipChains maps CCIP chain selectors to chain names.
var ccipChains = map[uint64]string{
	5009297550715157269:  "ethereum",
	4949039107694359620:  "arbitrum",
	3734403246176062136:  "optimism",
	15971525489660198786: "base",
	4051577828743386545:  "polygon",
	6433500567565415381:  "avalanche",
	11344663589394136015: "bsc",
}

// CcipChainName resolves a CCIP chain selector.
func CcipChainName(selector uint64) (string, bool) {
	name, ok := ccipChains[selector]
	return name, ok
}

func call[T any](ctx context.Context, c Caller, module util.HexAddress, method Method, args ...any) (T, error) {
	var zero T
	res, err := c.Call(ctx, module, method, args...)
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, errorsmod.Wrapf(ErrUnexpectedResult, "%s returned %T", method, res)
	}
	return v, nil
}
