package config

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
)

// Validate checks the structural invariants of cfg and all of its submodules.
func Validate(cfg Config) error {
	switch c := cfg.(type) {
	case nil:
		return ErrMissingModule
	case *MultisigConfig:
		if c.Threshold == 0 || int(c.Threshold) > len(c.Validators) {
			return errorsmod.Wrapf(ErrInvalidThreshold, "%s: threshold %d with %d validators", c.Kind(), c.Threshold, len(c.Validators))
		}
		return checkDuplicates(c.Validators)
	case *WeightedMultisigConfig:
		signers := make([]common.Address, 0, len(c.Validators))
		for _, v := range c.Validators {
			if v.Weight == 0 {
				return errorsmod.Wrapf(ErrInvalidConfig, "%s: validator %s has zero weight", c.Kind(), v.Signer.Hex())
			}
			signers = append(signers, v.Signer)
		}
		if c.ThresholdWeight == 0 || c.ThresholdWeight > c.TotalWeight() {
			return errorsmod.Wrapf(ErrInvalidThreshold, "%s: threshold weight %d with total weight %d", c.Kind(), c.ThresholdWeight, c.TotalWeight())
		}
		return checkDuplicates(signers)
	case *RoutingConfig:
		if c.Variant == InterchainAccountRouting && len(c.Domains) > 0 {
			return errorsmod.Wrap(ErrInvalidConfig, "interchain account routing cannot declare domains")
		}
		for _, domain := range SortedDomains(c.Domains) {
			if err := Validate(c.Domains[domain]); err != nil {
				return errorsmod.Wrapf(err, "domain %d", domain)
			}
		}
	case *AggregationConfig:
		if c.Threshold == 0 || int(c.Threshold) > len(c.Modules) {
			return errorsmod.Wrapf(ErrInvalidThreshold, "%s: threshold %d with %d modules", c.Kind(), c.Threshold, len(c.Modules))
		}
		for i, sub := range c.Modules {
			if err := Validate(sub); err != nil {
				return errorsmod.Wrapf(err, "module %d", i)
			}
		}
	case *AmountRoutingConfig:
		if c.Threshold == nil {
			return errorsmod.Wrap(ErrInvalidThreshold, "amount routing threshold is required")
		}
		if err := Validate(c.Lower); err != nil {
			return errorsmod.Wrap(err, "lower")
		}
		if err := Validate(c.Upper); err != nil {
			return errorsmod.Wrap(err, "upper")
		}
	case *CcipConfig:
		if c.OriginChain == "" {
			return errorsmod.Wrap(ErrInvalidConfig, "ccip origin chain is required")
		}
	}
	return nil
}

func checkDuplicates(validators []common.Address) error {
	seen := make(map[common.Address]struct{}, len(validators))
	for _, v := range validators {
		if _, ok := seen[v]; ok {
			return errorsmod.Wrap(ErrDuplicateValidator, v.Hex())
		}
		seen[v] = struct{}{}
	}
	return nil
}
