package config

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
)

// KnownChains answers whether a domain belongs to a chain the caller knows.
type KnownChains interface {
	Has(domain uint32) bool
}

// Registry maps chain names to domain ids.
type Registry struct {
	names   map[uint32]string
	domains map[string]uint32
}

// NewRegistry builds a Registry from a name to domain id mapping.
func NewRegistry(chains map[string]uint32) *Registry {
	r := &Registry{
		names:   make(map[uint32]string, len(chains)),
		domains: make(map[string]uint32, len(chains)),
	}
	for name, domain := range chains {
		r.names[domain] = name
		r.domains[name] = domain
	}
	return r
}

// Has implements KnownChains. A nil registry knows no chains.
func (r *Registry) Has(domain uint32) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[domain]
	return ok
}

// Name returns the chain name registered for domain.
func (r *Registry) Name(domain uint32) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.names[domain]
	return name, ok
}

// Domain resolves a chain name.
func (r *Registry) Domain(name string) (uint32, error) {
	if r != nil {
		if domain, ok := r.domains[name]; ok {
			return domain, nil
		}
	}
	return 0, errorsmod.Wrap(ErrUnknownChain, name)
}

// Domains returns every registered domain in ascending order.
func (r *Registry) Domains() []uint32 {
	if r == nil {
		return nil
	}
	out := make([]uint32, 0, len(r.names))
	for domain := range r.names {
		out = append(out, domain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
