// Package reconcile computes the operations that move a deployed module tree
// to a declared target, or decides that a new deployment is required.
package reconcile

import (
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

// Action is the outcome of a reconciliation.
type Action uint8

const (
	NoOp Action = iota
	Update
	Redeploy
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "noop"
	case Update:
		return "update"
	case Redeploy:
		return "redeploy"
	}
	return fmt.Sprintf("action(%d)", a)
}

type Result struct {
	Action  Action
	Address util.HexAddress
	// Reason explains a Redeploy.
	Reason string
	// Delta is set for routing modules.
	Delta      *ModuleDelta
	Operations []Operation
}

func redeploy(addr util.HexAddress, format string, args ...any) Result {
	return Result{Action: Redeploy, Address: addr, Reason: fmt.Sprintf(format, args...)}
}

// Compute reconciles the derived current config with target. Neither input
// is modified.
func Compute(current, target config.Config, known config.KnownChains) (Result, error) {
	if current == nil || target == nil {
		return Result{}, config.ErrMissingModule
	}
	addr := current.GetAddress()
	if addr.IsZeroAddress() {
		return Result{}, errorsmod.Wrapf(ErrNotDerived, "%s", current.Kind())
	}

	if config.Satisfies(current, target) {
		return Result{Action: NoOp, Address: addr}, nil
	}
	if current.Kind() != target.Kind() {
		return redeploy(addr, "kind changed from %s to %s", current.Kind(), target.Kind()), nil
	}

	switch cur := current.(type) {
	case *config.RoutingConfig:
		return computeRouting(cur, target.(*config.RoutingConfig), known), nil
	case *config.PausableConfig:
		return computePausable(cur, target.(*config.PausableConfig)), nil
	case *config.AggregationConfig:
		return computeAggregation(cur, target.(*config.AggregationConfig), known)
	}
	return redeploy(addr, "%s modules are immutable", current.Kind()), nil
}

// ComputeInPlace is Compute for callers that can only update existing
// modules. A required redeploy is returned as ErrRedeployRequired.
func ComputeInPlace(current, target config.Config, known config.KnownChains) ([]Operation, error) {
	res, err := Compute(current, target, known)
	if err != nil {
		return nil, err
	}
	if res.Action == Redeploy {
		return nil, errorsmod.Wrapf(ErrRedeployRequired, "%s module %s: %s", current.Kind(), res.Address, res.Reason)
	}
	return res.Operations, nil
}

func computeRouting(current, target *config.RoutingConfig, known config.KnownChains) Result {
	addr := current.Address
	if current.Variant == config.InterchainAccountRouting {
		return redeploy(addr, "interchain account routes cannot be enumerated")
	}

	delta := RoutingDelta(current, target, known)
	if delta.MailboxChange != nil {
		return redeploy(addr, "mailbox changed to %s", *delta.MailboxChange)
	}

	var ops []Operation
	for _, domain := range delta.DomainsToEnroll {
		ops = append(ops, EnrollDomain{Module: addr, Domain: domain, Target: config.Clone(target.Domains[domain])})
	}
	for _, domain := range delta.DomainsToUnenroll {
		ops = append(ops, UnenrollDomain{Module: addr, Domain: domain})
	}
	if delta.OwnerChange != nil {
		ops = append(ops, TransferOwnership{Module: addr, NewOwner: *delta.OwnerChange})
	}

	res := Result{Action: Update, Address: addr, Delta: &delta, Operations: ops}
	if len(ops) == 0 {
		res.Action = NoOp
	}
	return res
}

func computePausable(current, target *config.PausableConfig) Result {
	addr := current.Address
	var ops []Operation
	if current.Paused != target.Paused {
		ops = append(ops, SetPaused{Module: addr, Paused: target.Paused})
	}
	if !target.Owner.IsZeroAddress() && current.Owner != target.Owner {
		ops = append(ops, TransferOwnership{Module: addr, NewOwner: target.Owner})
	}
	res := Result{Action: Update, Address: addr, Operations: ops}
	if len(ops) == 0 {
		res.Action = NoOp
	}
	return res
}

// computeAggregation matches submodules regardless of order. Submodules that
// already satisfy a target are kept. Each remaining target is updated in
// place from the remaining current submodule of its kind that needs the
// fewest changes, preferring the one sharing the most domains.
func computeAggregation(current, target *config.AggregationConfig, known config.KnownChains) (Result, error) {
	addr := current.Address
	if len(current.Modules) != len(target.Modules) {
		return redeploy(addr, "module count changed from %d to %d", len(current.Modules), len(target.Modules)), nil
	}
	if current.Threshold != target.Threshold {
		return redeploy(addr, "threshold changed from %d to %d", current.Threshold, target.Threshold), nil
	}

	used := make([]bool, len(current.Modules))
	var changed []int
	for t, c := range config.PairModules(current.Modules, target.Modules) {
		if c >= 0 {
			used[c] = true
			continue
		}
		if kind := target.Modules[t].Kind(); !kind.Mutable() {
			return redeploy(addr, "immutable %s submodule changed", kind), nil
		}
		changed = append(changed, t)
	}

	type candidate struct {
		target, current int
		res             Result
		cost, shared    int
	}
	var candidates []candidate
	for _, t := range changed {
		tgt := target.Modules[t]
		for c, cur := range current.Modules {
			if used[c] || cur.Kind() != tgt.Kind() {
				continue
			}
			res, err := Compute(cur, tgt, known)
			if err != nil {
				return Result{}, err
			}
			if res.Action == Redeploy {
				continue
			}
			candidates = append(candidates, candidate{
				target:  t,
				current: c,
				res:     res,
				cost:    updateCost(res),
				shared:  sharedDomains(cur, tgt),
			})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].cost != candidates[j].cost {
			return candidates[i].cost < candidates[j].cost
		}
		return candidates[i].shared > candidates[j].shared
	})

	updates := make(map[int]Result, len(changed))
	for _, cand := range candidates {
		if _, done := updates[cand.target]; done || used[cand.current] {
			continue
		}
		used[cand.current] = true
		updates[cand.target] = cand.res
	}

	var ops []Operation
	for _, t := range changed {
		res, ok := updates[t]
		if !ok {
			return redeploy(addr, "no %s submodule can be updated in place", target.Modules[t].Kind()), nil
		}
		ops = append(ops, res.Operations...)
	}

	res := Result{Action: Update, Address: addr, Operations: ops}
	if len(ops) == 0 {
		res.Action = NoOp
	}
	return res, nil
}

// updateCost counts the changes an update makes, including removed domains
// it has to leave enrolled.
func updateCost(res Result) int {
	n := len(res.Operations)
	if res.Delta != nil {
		n += len(res.Delta.SkippedUnenroll)
	}
	return n
}

func sharedDomains(current, target config.Config) int {
	cur, ok := current.(*config.RoutingConfig)
	if !ok {
		return 0
	}
	tgt, ok := target.(*config.RoutingConfig)
	if !ok {
		return 0
	}
	n := 0
	for domain := range tgt.Domains {
		if _, ok := cur.Domains[domain]; ok {
			n++
		}
	}
	return n
}
