package config

import (
	"fmt"
	"os"

	errorsmod "cosmossdk.io/errors"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// rawConfig is the on-disk form of a Config. Domain keys may be numeric
// domain ids or chain names; validators may be plain addresses or
// signer/weight pairs.
type rawConfig struct {
	Type            string                     `yaml:"type"`
	Address         string                     `yaml:"address,omitempty"`
	Owner           string                     `yaml:"owner,omitempty"`
	Mailbox         string                     `yaml:"mailbox,omitempty"`
	Validators      []interface{}              `yaml:"validators,omitempty"`
	Threshold       interface{}                `yaml:"threshold,omitempty"`
	ThresholdWeight interface{}                `yaml:"thresholdWeight,omitempty"`
	Domains         map[interface{}]*rawConfig `yaml:"domains,omitempty"`
	Modules         []*rawConfig               `yaml:"modules,omitempty"`
	Lower           *rawConfig                 `yaml:"lowerIsm,omitempty"`
	Upper           *rawConfig                 `yaml:"upperIsm,omitempty"`
	Paused          bool                       `yaml:"paused,omitempty"`
	Relayer         string                     `yaml:"relayer,omitempty"`
	NativeBridge    string                     `yaml:"nativeBridge,omitempty"`
	OriginChain     string                     `yaml:"originChain,omitempty"`
	Bridge          string                     `yaml:"bridge,omitempty"`
}

// Load reads and validates a config file.
func Load(path string, registry *Registry) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML config. Chain names used as domain keys
// are resolved through registry.
func Parse(data []byte, registry *Registry) (Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidConfig, err.Error())
	}
	cfg, err := raw.toConfig(registry)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML. Domains known to registry are written by name.
func Marshal(cfg Config, registry *Registry) ([]byte, error) {
	raw, err := fromConfig(cfg, registry)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(raw)
}

func (r *rawConfig) toConfig(registry *Registry) (Config, error) {
	if r == nil {
		return nil, ErrMissingModule
	}
	addr, err := ParseAddress(r.Address)
	if err != nil {
		return nil, err
	}

	switch Kind(r.Type) {
	case KindMerkleRootMultisig, KindMessageIDMultisig:
		c := &MultisigConfig{Address: addr, Variant: multisigVariant(Kind(r.Type))}
		for _, v := range r.Validators {
			signer, err := ParseValidator(cast.ToString(v))
			if err != nil {
				return nil, err
			}
			c.Validators = append(c.Validators, signer)
		}
		threshold, err := cast.ToUint32E(r.Threshold)
		if err != nil {
			return nil, errorsmod.Wrap(ErrInvalidThreshold, err.Error())
		}
		c.Threshold = threshold
		return c, nil

	case KindWeightedMerkleRootMultisig, KindWeightedMessageIDMultisig:
		c := &WeightedMultisigConfig{Address: addr, Variant: multisigVariant(Kind(r.Type))}
		for _, v := range r.Validators {
			fields, err := cast.ToStringMapE(v)
			if err != nil {
				return nil, errorsmod.Wrapf(ErrInvalidConfig, "weighted validator: %s", err)
			}
			signer, err := ParseValidator(cast.ToString(fields["signer"]))
			if err != nil {
				return nil, err
			}
			weight, err := cast.ToUint64E(fields["weight"])
			if err != nil {
				return nil, errorsmod.Wrapf(ErrInvalidConfig, "weight of %s: %s", signer.Hex(), err)
			}
			c.Validators = append(c.Validators, WeightedValidator{Signer: signer, Weight: weight})
		}
		threshold, err := cast.ToUint64E(r.ThresholdWeight)
		if err != nil {
			return nil, errorsmod.Wrap(ErrInvalidThreshold, err.Error())
		}
		c.ThresholdWeight = threshold
		return c, nil

	case KindDomainRouting, KindFallbackRouting, KindInterchainAccountRouting:
		c := &RoutingConfig{Address: addr, Domains: make(map[uint32]Config, len(r.Domains))}
		switch Kind(r.Type) {
		case KindFallbackRouting:
			c.Variant = FallbackRouting
		case KindInterchainAccountRouting:
			c.Variant = InterchainAccountRouting
		}
		if c.Owner, err = ParseAddress(r.Owner); err != nil {
			return nil, err
		}
		if c.Mailbox, err = ParseAddress(r.Mailbox); err != nil {
			return nil, err
		}
		for key, sub := range r.Domains {
			domain, err := domainKey(key, registry)
			if err != nil {
				return nil, err
			}
			subCfg, err := sub.toConfig(registry)
			if err != nil {
				return nil, errorsmod.Wrapf(err, "domain %d", domain)
			}
			c.Domains[domain] = subCfg
		}
		return c, nil

	case KindAggregation:
		c := &AggregationConfig{Address: addr}
		for i, sub := range r.Modules {
			subCfg, err := sub.toConfig(registry)
			if err != nil {
				return nil, errorsmod.Wrapf(err, "module %d", i)
			}
			c.Modules = append(c.Modules, subCfg)
		}
		threshold, err := cast.ToUint32E(r.Threshold)
		if err != nil {
			return nil, errorsmod.Wrap(ErrInvalidThreshold, err.Error())
		}
		c.Threshold = threshold
		return c, nil

	case KindAmountRouting:
		c := &AmountRoutingConfig{Address: addr}
		if c.Lower, err = r.Lower.toConfig(registry); err != nil {
			return nil, errorsmod.Wrap(err, "lowerIsm")
		}
		if c.Upper, err = r.Upper.toConfig(registry); err != nil {
			return nil, errorsmod.Wrap(err, "upperIsm")
		}
		if c.Threshold, err = uint256.FromDecimal(cast.ToString(r.Threshold)); err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidThreshold, "amount threshold %v: %s", r.Threshold, err)
		}
		return c, nil

	case KindTest:
		return &TestConfig{Address: addr}, nil

	case KindPausable:
		owner, err := ParseAddress(r.Owner)
		if err != nil {
			return nil, err
		}
		return &PausableConfig{Address: addr, Owner: owner, Paused: r.Paused}, nil

	case KindTrustedRelayer:
		relayer, err := ParseAddress(r.Relayer)
		if err != nil {
			return nil, err
		}
		return &TrustedRelayerConfig{Address: addr, Relayer: relayer}, nil

	case KindOpStack:
		bridge, err := ParseAddress(r.NativeBridge)
		if err != nil {
			return nil, err
		}
		return &OpStackConfig{Address: addr, NativeBridge: bridge}, nil

	case KindCcip:
		return &CcipConfig{Address: addr, OriginChain: r.OriginChain}, nil

	case KindArbL2ToL1:
		bridge, err := ParseAddress(r.Bridge)
		if err != nil {
			return nil, err
		}
		return &ArbL2ToL1Config{Address: addr, Bridge: bridge}, nil
	}
	return nil, errorsmod.Wrapf(ErrUnknownKind, "%q", r.Type)
}

func multisigVariant(k Kind) MultisigKind {
	if k == KindMerkleRootMultisig || k == KindWeightedMerkleRootMultisig {
		return MerkleRoot
	}
	return MessageID
}

// domainKey accepts numeric domain ids and registered chain names.
func domainKey(key interface{}, registry *Registry) (uint32, error) {
	if domain, err := cast.ToUint32E(key); err == nil {
		return domain, nil
	}
	return registry.Domain(cast.ToString(key))
}

func fromConfig(cfg Config, registry *Registry) (*rawConfig, error) {
	if cfg == nil {
		return nil, ErrMissingModule
	}
	raw := &rawConfig{Type: string(cfg.Kind()), Address: FormatAddress(cfg.GetAddress())}
	switch c := cfg.(type) {
	case *MultisigConfig:
		for _, v := range c.Validators {
			raw.Validators = append(raw.Validators, v.Hex())
		}
		raw.Threshold = c.Threshold
	case *WeightedMultisigConfig:
		for _, v := range c.Validators {
			raw.Validators = append(raw.Validators, map[string]interface{}{
				"signer": v.Signer.Hex(),
				"weight": v.Weight,
			})
		}
		raw.ThresholdWeight = c.ThresholdWeight
	case *RoutingConfig:
		raw.Owner = FormatAddress(c.Owner)
		raw.Mailbox = FormatAddress(c.Mailbox)
		if len(c.Domains) > 0 {
			raw.Domains = make(map[interface{}]*rawConfig, len(c.Domains))
		}
		for domain, sub := range c.Domains {
			subRaw, err := fromConfig(sub, registry)
			if err != nil {
				return nil, err
			}
			var key interface{} = domain
			if name, ok := registry.Name(domain); ok {
				key = name
			}
			raw.Domains[key] = subRaw
		}
	case *AggregationConfig:
		for _, sub := range c.Modules {
			subRaw, err := fromConfig(sub, registry)
			if err != nil {
				return nil, err
			}
			raw.Modules = append(raw.Modules, subRaw)
		}
		raw.Threshold = c.Threshold
	case *AmountRoutingConfig:
		var err error
		if raw.Lower, err = fromConfig(c.Lower, registry); err != nil {
			return nil, err
		}
		if raw.Upper, err = fromConfig(c.Upper, registry); err != nil {
			return nil, err
		}
		if c.Threshold != nil {
			raw.Threshold = c.Threshold.Dec()
		}
	case *PausableConfig:
		raw.Owner = FormatAddress(c.Owner)
		raw.Paused = c.Paused
	case *TrustedRelayerConfig:
		raw.Relayer = FormatAddress(c.Relayer)
	case *OpStackConfig:
		raw.NativeBridge = FormatAddress(c.NativeBridge)
	case *CcipConfig:
		raw.OriginChain = c.OriginChain
	case *ArbL2ToL1Config:
		raw.Bridge = FormatAddress(c.Bridge)
	}
	return raw, nil
}

