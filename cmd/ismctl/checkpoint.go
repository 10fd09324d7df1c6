package main

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/ismkit/pkg/ism/checkpoint"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

func checkpointCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Sign and inspect validator checkpoints",
	}
	cmd.AddCommand(signCheckpointCmd(a), fetchCheckpointCmd(a))
	return cmd
}

func signCheckpointCmd(a *app) *cobra.Command {
	var (
		rawKey    string
		dir       string
		hook      string
		origin    uint32
		root      string
		index     uint32
		messageID string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a checkpoint into a local checkpoint directory",
		Long: `Sign a checkpoint into a local checkpoint directory.

This is a development tool for local networks; production validators publish
checkpoints themselves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, err := ethcrypto.HexToECDSA(rawKey)
			if err != nil {
				return fmt.Errorf("failed to hex-decode ECDSA private key: %w", err)
			}
			hookAddr, err := config.ParseAddress(hook)
			if err != nil {
				return err
			}
			for flag, value := range map[string]string{"root": root, "message-id": messageID} {
				if raw, err := decodeHex(value); err != nil || len(raw) != common.HashLength {
					return fmt.Errorf("--%s must be a 32 byte hex string", flag)
				}
			}

			signed, err := checkpoint.Sign(checkpoint.WithMessageID{
				Checkpoint: checkpoint.Checkpoint{
					MerkleTreeHook: hookAddr,
					Origin:         origin,
					Root:           common.HexToHash(root),
					Index:          index,
				},
				MessageID: common.HexToHash(messageID),
			}, key)
			if err != nil {
				return err
			}

			storage, err := checkpoint.NewLocalStorage(dir)
			if err != nil {
				return err
			}
			if err := storage.Write(ctx, signed); err != nil {
				return err
			}
			latest, err := storage.LatestIndex(ctx)
			switch {
			case errors.Is(err, checkpoint.ErrNotFound) || (err == nil && index > latest):
				if err := storage.WriteLatestIndex(ctx, index); err != nil {
					return err
				}
			case err != nil:
				return err
			}

			validator := ethcrypto.PubkeyToAddress(key.PublicKey)
			a.logger.Info("signed checkpoint", "validator", validator.Hex(), "index", index, "location", storage.Location())
			return writeJSON(cmd.OutOrStdout(), signed)
		},
	}

	cmd.Flags().StringVarP(&rawKey, "key", "k", "", "hex encoded validator private key (required)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "checkpoint directory (required)")
	cmd.Flags().StringVar(&hook, "hook", "", "merkle tree hook (required)")
	cmd.Flags().Uint32Var(&origin, "origin", 0, "origin domain (required)")
	cmd.Flags().StringVar(&root, "root", "", "merkle root at index (required)")
	cmd.Flags().Uint32Var(&index, "index", 0, "checkpoint index")
	cmd.Flags().StringVar(&messageID, "message-id", "", "id of the message inserted at index (required)")
	for _, flag := range []string{"key", "dir", "hook", "origin", "root", "message-id"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}

func fetchCheckpointCmd(a *app) *cobra.Command {
	var (
		validator string
		index     int64
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and verify a validator's checkpoint from its configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			addr, err := config.ParseValidator(validator)
			if err != nil {
				return err
			}
			storages, err := a.cfg.Storages(ctx)
			if err != nil {
				return err
			}
			storage, ok := storages[addr]
			if !ok {
				return errorsmod.Wrap(checkpoint.ErrNoStorage, addr.Hex())
			}

			at := uint32(index)
			if index < 0 {
				if at, err = storage.LatestIndex(ctx); err != nil {
					return err
				}
			}
			signed, err := storage.Fetch(ctx, at)
			if err != nil {
				return err
			}
			if err := signed.VerifySigner(addr); err != nil {
				return err
			}
			a.logger.Debug("fetched checkpoint", "validator", addr.Hex(), "index", at, "location", storage.Location())
			return writeJSON(cmd.OutOrStdout(), signed)
		},
	}

	cmd.Flags().StringVar(&validator, "validator", "", "validator address (required)")
	cmd.Flags().Int64Var(&index, "index", -1, "checkpoint index, the latest when negative")
	_ = cmd.MarkFlagRequired("validator")
	return cmd
}
