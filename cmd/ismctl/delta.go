package main

import (
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/reconcile"
)

const (
	currentFlag = "current"
	targetFlag  = "target"
)

type deltaOutput struct {
	Action     string     `json:"action"`
	Address    string     `json:"address"`
	Reason     string     `json:"reason,omitempty"`
	Delta      *deltaJSON `json:"delta,omitempty"`
	Operations []string   `json:"operations"`
}

type deltaJSON struct {
	DomainsToEnroll   []uint32 `json:"domainsToEnroll"`
	DomainsToUnenroll []uint32 `json:"domainsToUnenroll"`
	SkippedUnenroll   []uint32 `json:"skippedUnenroll,omitempty"`
	OwnerChange       string   `json:"ownerChange,omitempty"`
	MailboxChange     string   `json:"mailboxChange,omitempty"`
}

func deltaCmd(a *app) *cobra.Command {
	var currentPath, targetPath string

	cmd := &cobra.Command{
		Use:   "delta",
		Short: "Compute the changes that move a deployed module to a target config",
		Long: `Compute the changes that move a deployed module to a target config.

The current config must carry the addresses of the deployed modules, as
produced by a reader. Domains outside the configured chains are never
unenrolled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := a.cfg.Registry()
			current, err := config.Load(currentPath, registry)
			if err != nil {
				return err
			}
			target, err := config.Load(targetPath, registry)
			if err != nil {
				return err
			}

			res, err := reconcile.Compute(current, target, registry)
			if err != nil {
				return err
			}
			a.logger.Info("computed delta", "action", res.Action.String(), "ism", res.Address.String(), "operations", len(res.Operations))

			return writeJSON(cmd.OutOrStdout(), newDeltaOutput(res))
		},
	}

	cmd.Flags().StringVarP(&currentPath, currentFlag, "c", "", "YAML config of the deployed module (required)")
	cmd.Flags().StringVarP(&targetPath, targetFlag, "t", "", "YAML target config (required)")
	_ = cmd.MarkFlagRequired(currentFlag)
	_ = cmd.MarkFlagRequired(targetFlag)
	return cmd
}

func newDeltaOutput(res reconcile.Result) deltaOutput {
	out := deltaOutput{
		Action:     res.Action.String(),
		Address:    config.FormatAddress(res.Address),
		Reason:     res.Reason,
		Operations: make([]string, 0, len(res.Operations)),
	}
	for _, op := range res.Operations {
		out.Operations = append(out.Operations, op.String())
	}
	if d := res.Delta; d != nil {
		out.Delta = &deltaJSON{
			DomainsToEnroll:   nonNil(d.DomainsToEnroll),
			DomainsToUnenroll: nonNil(d.DomainsToUnenroll),
			SkippedUnenroll:   d.SkippedUnenroll,
			OwnerChange:       formatOptional(d.OwnerChange),
			MailboxChange:     formatOptional(d.MailboxChange),
		}
	}
	return out
}

func nonNil(domains []uint32) []uint32 {
	if domains == nil {
		return []uint32{}
	}
	return domains
}

func formatOptional(addr *util.HexAddress) string {
	if addr == nil {
		return ""
	}
	return config.FormatAddress(*addr)
}
