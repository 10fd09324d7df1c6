package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/celestiaorg/ismkit/pkg/ism/builder"
	"github.com/celestiaorg/ismkit/pkg/ism/checkpoint"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

const (
	configFileName = "config.toml"
	envPrefix      = "ISMCTL"
)

// Config is the content of config.toml.
type Config struct {
	LogLevel  string            `mapstructure:"log_level" toml:"log_level"`
	LogFormat string            `mapstructure:"log_format" toml:"log_format"`
	Chains    map[string]uint32 `mapstructure:"chains" toml:"chains"`
	Builder   BuilderConfig     `mapstructure:"builder" toml:"builder"`
	// Validators lists where each validator publishes its checkpoints.
	Validators []ValidatorStorage `mapstructure:"validators" toml:"validators"`
}

// BuilderConfig holds durations as strings, e.g. "10s".
type BuilderConfig struct {
	MaxDepth          uint32 `mapstructure:"max_depth" toml:"max_depth"`
	AttemptTimeout    string `mapstructure:"attempt_timeout" toml:"attempt_timeout"`
	MinAttemptTimeout string `mapstructure:"min_attempt_timeout" toml:"min_attempt_timeout"`
	FetchTimeout      string `mapstructure:"fetch_timeout" toml:"fetch_timeout"`
	CacheTTL          string `mapstructure:"cache_ttl" toml:"cache_ttl"`
}

// ValidatorStorage is either a local directory or an S3 bucket.
type ValidatorStorage struct {
	Address   string `mapstructure:"address" toml:"address"`
	Dir       string `mapstructure:"dir" toml:"dir,omitempty"`
	Bucket    string `mapstructure:"bucket" toml:"bucket,omitempty"`
	Region    string `mapstructure:"region" toml:"region,omitempty"`
	Folder    string `mapstructure:"folder" toml:"folder,omitempty"`
	Endpoint  string `mapstructure:"endpoint" toml:"endpoint,omitempty"`
	Anonymous bool   `mapstructure:"anonymous" toml:"anonymous,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "plain",
		Chains: map[string]uint32{
			"ethereum":  1,
			"optimism":  10,
			"arbitrum":  42161,
			"base":      8453,
			"celestia":  1128614981,
			"avalanche": 43114,
		},
		Builder: BuilderConfig{
			MaxDepth:          builder.DefaultMaxDepth,
			AttemptTimeout:    builder.DefaultAttemptTimeout.String(),
			MinAttemptTimeout: builder.DefaultMinAttemptTimeout.String(),
			FetchTimeout:      builder.DefaultFetchTimeout.String(),
			CacheTTL:          (5 * time.Minute).String(),
		},
	}
}

// Save writes cfg to home/config.toml. An existing file is never overwritten.
func (c Config) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	path := filepath.Join(home, configFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// loadConfig reads home/config.toml on top of the defaults. A missing file is
// not an error. Every key can be overridden with an ISMCTL_ prefixed
// environment variable.
func loadConfig(v *viper.Viper, home string) (Config, error) {
	cfg := DefaultConfig()
	v.SetConfigFile(filepath.Join(home, configFileName))
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// viper only consults the environment for keys it knows about
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("builder.max_depth", cfg.Builder.MaxDepth)
	v.SetDefault("builder.attempt_timeout", cfg.Builder.AttemptTimeout)
	v.SetDefault("builder.min_attempt_timeout", cfg.Builder.MinAttemptTimeout)
	v.SetDefault("builder.fetch_timeout", cfg.Builder.FetchTimeout)
	v.SetDefault("builder.cache_ttl", cfg.Builder.CacheTTL)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) Registry() *config.Registry {
	return config.NewRegistry(c.Chains)
}

// BuilderOptions turns the builder section into builder options.
func (c Config) BuilderOptions() ([]builder.Option, error) {
	attempt, err := cast.ToDurationE(c.Builder.AttemptTimeout)
	if err != nil {
		return nil, fmt.Errorf("builder.attempt_timeout: %w", err)
	}
	floor, err := cast.ToDurationE(c.Builder.MinAttemptTimeout)
	if err != nil {
		return nil, fmt.Errorf("builder.min_attempt_timeout: %w", err)
	}
	fetch, err := cast.ToDurationE(c.Builder.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("builder.fetch_timeout: %w", err)
	}
	ttl, err := cast.ToDurationE(c.Builder.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("builder.cache_ttl: %w", err)
	}
	opts := []builder.Option{
		builder.WithMaxDepth(c.Builder.MaxDepth),
		builder.WithAttemptTimeout(attempt, floor),
		builder.WithFetchTimeout(fetch),
	}
	if ttl > 0 {
		opts = append(opts, builder.WithCache(checkpoint.NewCache(ttl, nil)))
	}
	return opts, nil
}

// Storages opens the checkpoint storage of every configured validator.
func (c Config) Storages(ctx context.Context) (checkpoint.Storages, error) {
	out := make(checkpoint.Storages, len(c.Validators))
	for _, v := range c.Validators {
		addr, err := config.ParseValidator(v.Address)
		if err != nil {
			return nil, err
		}
		storage, err := v.open(ctx)
		if err != nil {
			return nil, fmt.Errorf("validator %s: %w", addr.Hex(), err)
		}
		out[addr] = storage
	}
	return out, nil
}

func (v ValidatorStorage) open(ctx context.Context) (checkpoint.Storage, error) {
	switch {
	case v.Dir != "" && v.Bucket != "":
		return nil, errors.New("dir and bucket are mutually exclusive")
	case v.Dir != "":
		return checkpoint.NewLocalStorage(v.Dir)
	case v.Bucket != "":
		return checkpoint.NewS3Storage(ctx, checkpoint.S3Config{
			Bucket:    v.Bucket,
			Region:    v.Region,
			Folder:    v.Folder,
			Endpoint:  v.Endpoint,
			Anonymous: v.Anonymous,
		})
	}
	return nil, errors.New("no checkpoint storage configured")
}
