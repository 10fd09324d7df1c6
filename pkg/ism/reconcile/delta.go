package reconcile

import (
	"github.com/bcp-innovations/hyperlane-cosmos/util"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

// ModuleDelta is the difference between two routing configs.
type ModuleDelta struct {
	// DomainsToEnroll holds domains that are new or whose submodule changed.
	DomainsToEnroll []uint32
	// DomainsToUnenroll holds removed domains known to the caller.
	DomainsToUnenroll []uint32
	// SkippedUnenroll holds removed domains the caller does not know. They
	// are left enrolled.
	SkippedUnenroll []uint32
	OwnerChange     *util.HexAddress
	MailboxChange   *util.HexAddress
}

// IsEmpty reports whether applying the delta changes nothing.
func (d ModuleDelta) IsEmpty() bool {
	return len(d.DomainsToEnroll) == 0 &&
		len(d.DomainsToUnenroll) == 0 &&
		d.OwnerChange == nil &&
		d.MailboxChange == nil
}

// RoutingDelta compares two routing configs after normalization. Domains are
// returned in ascending order. Only domains in known are ever unenrolled. A
// zero target owner leaves ownership untouched, at every level of the tree.
func RoutingDelta(current, target *config.RoutingConfig, known config.KnownChains) ModuleDelta {
	cur := config.Normalize(current).(*config.RoutingConfig)
	tgt := config.Normalize(target).(*config.RoutingConfig)

	var delta ModuleDelta
	for _, domain := range config.SortedDomains(tgt.Domains) {
		sub, ok := cur.Domains[domain]
		if !ok || !config.Satisfies(sub, tgt.Domains[domain]) {
			delta.DomainsToEnroll = append(delta.DomainsToEnroll, domain)
		}
	}
	for _, domain := range config.SortedDomains(cur.Domains) {
		if _, ok := tgt.Domains[domain]; ok {
			continue
		}
		if known != nil && known.Has(domain) {
			delta.DomainsToUnenroll = append(delta.DomainsToUnenroll, domain)
		} else {
			delta.SkippedUnenroll = append(delta.SkippedUnenroll, domain)
		}
	}

	if !tgt.Owner.IsZeroAddress() && cur.Owner != tgt.Owner {
		owner := tgt.Owner
		delta.OwnerChange = &owner
	}
	if tgt.Variant == config.FallbackRouting && cur.Mailbox != tgt.Mailbox {
		mailbox := tgt.Mailbox
		delta.MailboxChange = &mailbox
	}
	return delta
}
