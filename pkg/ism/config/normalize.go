package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/holiman/uint256"
)

// Clone returns a deep copy of cfg.
func Clone(cfg Config) Config {
	switch c := cfg.(type) {
	case nil:
		return nil
	case *MultisigConfig:
		out := *c
		out.Validators = append(c.Validators[:0:0], c.Validators...)
		return &out
	case *WeightedMultisigConfig:
		out := *c
		out.Validators = append(c.Validators[:0:0], c.Validators...)
		return &out
	case *RoutingConfig:
		out := *c
		out.Domains = make(map[uint32]Config, len(c.Domains))
		for domain, sub := range c.Domains {
			out.Domains[domain] = Clone(sub)
		}
		return &out
	case *AggregationConfig:
		out := *c
		out.Modules = make([]Config, len(c.Modules))
		for i, sub := range c.Modules {
			out.Modules[i] = Clone(sub)
		}
		return &out
	case *AmountRoutingConfig:
		out := *c
		out.Lower = Clone(c.Lower)
		out.Upper = Clone(c.Upper)
		if c.Threshold != nil {
			out.Threshold = new(uint256.Int).Set(c.Threshold)
		}
		return &out
	case *TestConfig:
		out := *c
		return &out
	case *PausableConfig:
		out := *c
		return &out
	case *TrustedRelayerConfig:
		out := *c
		return &out
	case *OpStackConfig:
		out := *c
		return &out
	case *CcipConfig:
		out := *c
		return &out
	case *ArbL2ToL1Config:
		out := *c
		return &out
	}
	panic(fmt.Sprintf("config: unhandled variant %T", cfg))
}

// Normalize returns a copy of cfg with every address-of-self stripped,
// validator lists sorted and aggregation modules sorted canonically, so that
// two normalized trees are structurally comparable.
func Normalize(cfg Config) Config {
	out := Clone(cfg)
	normalize(out)
	return out
}

func normalize(cfg Config) {
	switch c := cfg.(type) {
	case *MultisigConfig:
		c.Address = util.HexAddress{}
		sort.Slice(c.Validators, func(i, j int) bool {
			return bytes.Compare(c.Validators[i][:], c.Validators[j][:]) < 0
		})
	case *WeightedMultisigConfig:
		c.Address = util.HexAddress{}
		sort.Slice(c.Validators, func(i, j int) bool {
			return bytes.Compare(c.Validators[i].Signer[:], c.Validators[j].Signer[:]) < 0
		})
	case *RoutingConfig:
		c.Address = util.HexAddress{}
		for _, sub := range c.Domains {
			normalize(sub)
		}
	case *AggregationConfig:
		c.Address = util.HexAddress{}
		for _, sub := range c.Modules {
			normalize(sub)
		}
		sort.SliceStable(c.Modules, func(i, j int) bool {
			return Canonical(c.Modules[i]) < Canonical(c.Modules[j])
		})
	case *AmountRoutingConfig:
		c.Address = util.HexAddress{}
		normalize(c.Lower)
		normalize(c.Upper)
	case *TestConfig:
		c.Address = util.HexAddress{}
	case *PausableConfig:
		c.Address = util.HexAddress{}
	case *TrustedRelayerConfig:
		c.Address = util.HexAddress{}
	case *OpStackConfig:
		c.Address = util.HexAddress{}
	case *CcipConfig:
		c.Address = util.HexAddress{}
	case *ArbL2ToL1Config:
		c.Address = util.HexAddress{}
	}
}

// Equal reports whether a and b describe the same module tree, ignoring
// addresses, validator order and aggregation module order.
func Equal(a, b Config) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Canonical(Normalize(a)) == Canonical(Normalize(b))
}

// Canonical renders cfg into a deterministic string. Two configs with the same
// canonical form are structurally identical, including addresses and element
// order, so callers compare normalized trees.
func Canonical(cfg Config) string {
	var sb strings.Builder
	writeCanonical(&sb, cfg)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, cfg Config) {
	if cfg == nil {
		sb.WriteString("null")
		return
	}
	fmt.Fprintf(sb, "%s{%s", cfg.Kind(), cfg.GetAddress())
	switch c := cfg.(type) {
	case *MultisigConfig:
		fmt.Fprintf(sb, ";t=%d;v=", c.Threshold)
		for _, v := range c.Validators {
			sb.WriteString(v.Hex())
			sb.WriteByte(',')
		}
	case *WeightedMultisigConfig:
		fmt.Fprintf(sb, ";t=%d;v=", c.ThresholdWeight)
		for _, v := range c.Validators {
			fmt.Fprintf(sb, "%s:%d,", v.Signer.Hex(), v.Weight)
		}
	case *RoutingConfig:
		fmt.Fprintf(sb, ";o=%s;m=%s;d=", c.Owner, c.Mailbox)
		for _, domain := range SortedDomains(c.Domains) {
			fmt.Fprintf(sb, "%d:", domain)
			writeCanonical(sb, c.Domains[domain])
			sb.WriteByte(',')
		}
	case *AggregationConfig:
		fmt.Fprintf(sb, ";t=%d;m=", c.Threshold)
		for _, sub := range c.Modules {
			writeCanonical(sb, sub)
			sb.WriteByte(',')
		}
	case *AmountRoutingConfig:
		threshold := "0"
		if c.Threshold != nil {
			threshold = c.Threshold.Dec()
		}
		fmt.Fprintf(sb, ";t=%s;l=", threshold)
		writeCanonical(sb, c.Lower)
		sb.WriteString(";u=")
		writeCanonical(sb, c.Upper)
	case *PausableConfig:
		fmt.Fprintf(sb, ";o=%s;p=%t", c.Owner, c.Paused)
	case *TrustedRelayerConfig:
		fmt.Fprintf(sb, ";r=%s", c.Relayer)
	case *OpStackConfig:
		fmt.Fprintf(sb, ";b=%s", c.NativeBridge)
	case *CcipConfig:
		fmt.Fprintf(sb, ";c=%s", c.OriginChain)
	case *ArbL2ToL1Config:
		fmt.Fprintf(sb, ";b=%s", c.Bridge)
	}
	sb.WriteByte('}')
}

// SortedDomains returns the keys of domains in ascending order.
func SortedDomains(domains map[uint32]Config) []uint32 {
	out := make([]uint32, 0, len(domains))
	for domain := range domains {
		out = append(out, domain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Satisfies reports whether the deployed current tree already implements
// target. Like Equal it ignores addresses and ordering; in addition a zero
// owner anywhere in target accepts any owner.
func Satisfies(current, target Config) bool {
	return satisfies(Normalize(current), Normalize(target))
}

func satisfies(cur, tgt Config) bool {
	if cur == nil || tgt == nil {
		return cur == nil && tgt == nil
	}
	if cur.Kind() != tgt.Kind() {
		return false
	}
	switch t := tgt.(type) {
	case *RoutingConfig:
		c := cur.(*RoutingConfig)
		if !ownerSatisfies(c.Owner, t.Owner) || c.Mailbox != t.Mailbox || len(c.Domains) != len(t.Domains) {
			return false
		}
		for domain, sub := range t.Domains {
			if cs, ok := c.Domains[domain]; !ok || !satisfies(cs, sub) {
				return false
			}
		}
		return true
	case *PausableConfig:
		c := cur.(*PausableConfig)
		return c.Paused == t.Paused && ownerSatisfies(c.Owner, t.Owner)
	case *AmountRoutingConfig:
		c := cur.(*AmountRoutingConfig)
		return thresholdOf(c.Threshold).Eq(thresholdOf(t.Threshold)) &&
			satisfies(c.Lower, t.Lower) &&
			satisfies(c.Upper, t.Upper)
	case *AggregationConfig:
		c := cur.(*AggregationConfig)
		if c.Threshold != t.Threshold || len(c.Modules) != len(t.Modules) {
			return false
		}
		for _, i := range pairModules(c.Modules, t.Modules) {
			if i < 0 {
				return false
			}
		}
		return true
	}
	return Canonical(cur) == Canonical(tgt)
}

func ownerSatisfies(current, target util.HexAddress) bool {
	return target.IsZeroAddress() || current == target
}

func thresholdOf(t *uint256.Int) *uint256.Int {
	if t == nil {
		return new(uint256.Int)
	}
	return t
}

// PairModules matches target modules to the current modules that satisfy
// them, each current module used at most once. The result holds, per target
// module, the index of its current module or -1. The number of matched
// modules is maximal.
func PairModules(current, target []Config) []int {
	cur := make([]Config, len(current))
	for i, m := range current {
		cur[i] = Normalize(m)
	}
	tgt := make([]Config, len(target))
	for i, m := range target {
		tgt[i] = Normalize(m)
	}
	return pairModules(cur, tgt)
}

// pairModules is a bipartite matching over normalized modules using
// augmenting paths.
func pairModules(current, target []Config) []int {
	ok := make([][]bool, len(target))
	for t := range target {
		ok[t] = make([]bool, len(current))
		for c := range current {
			ok[t][c] = satisfies(current[c], target[t])
		}
	}

	owner := make([]int, len(current))
	for c := range owner {
		owner[c] = -1
	}
	var augment func(t int, seen []bool) bool
	augment = func(t int, seen []bool) bool {
		for c := range current {
			if seen[c] || !ok[t][c] {
				continue
			}
			seen[c] = true
			if owner[c] < 0 || augment(owner[c], seen) {
				owner[c] = t
				return true
			}
		}
		return false
	}
	for t := range target {
		augment(t, make([]bool, len(current)))
	}

	pairs := make([]int, len(target))
	for t := range pairs {
		pairs[t] = -1
	}
	for c, t := range owner {
		if t >= 0 {
			pairs[t] = c
		}
	}
	return pairs
}
