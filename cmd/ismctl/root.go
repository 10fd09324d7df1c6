package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"cosmossdk.io/log"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	homeFlag      = "home"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	envFileFlag   = "env-file"
)

// app is shared by all subcommands and populated before any of them runs.
type app struct {
	cfg    Config
	logger log.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "ismctl",
		Short:         "Inspect, reconcile and build metadata for interchain security modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, err := cmd.Flags().GetString(envFileFlag)
			if err != nil {
				return err
			}
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			home, err := cmd.Flags().GetString(homeFlag)
			if err != nil {
				return err
			}
			a.cfg, err = loadConfig(v, home)
			if err != nil {
				return err
			}
			a.logger, err = newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogFormat)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	rootCmd.PersistentFlags().String(homeFlag, filepath.Join(homeDir, ".ismctl"), "directory holding config.toml")
	rootCmd.PersistentFlags().String(logLevelFlag, "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String(logFormatFlag, "plain", "log format (plain|json)")
	rootCmd.PersistentFlags().String(envFileFlag, ".env", "dotenv file with AWS credentials, ignored when missing")

	rootCmd.AddCommand(
		initCmd(),
		deltaCmd(a),
		metadataCmd(a),
		checkpointCmd(a),
	)
	return rootCmd
}

// bindFlags lets command line flags override config.toml.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, flag := range map[string]string{
		"log_level":  logLevelFlag,
		"log_format": logFormatFlag,
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := []log.Option{log.LevelOption(lvl)}
	switch format {
	case "json":
		opts = append(opts, log.OutputJSONOption())
	case "plain", "":
		opts = append(opts, log.ColorOption(false))
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return log.NewLogger(w, opts...), nil
}
