package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml into the home directory",
		Args:  cobra.NoArgs,
		// init must work before a config exists.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := cmd.Flags().GetString(homeFlag)
			if err != nil {
				return err
			}
			if err := DefaultConfig().Save(home); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(home, configFileName))
			return nil
		},
	}
}
