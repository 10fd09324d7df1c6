package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/ismkit/pkg/ism/builder"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/merkle"
	"github.com/celestiaorg/ismkit/pkg/ism/metadata"
)

const (
	variantAggregation = "aggregation"
	variantMessageID   = "message-id"
	variantMerkleRoot  = "merkle-root"
)

func metadataCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Build and decode security module metadata",
	}
	cmd.AddCommand(decodeMetadataCmd(), buildMetadataCmd(a))
	return cmd
}

type checkpointOutput struct {
	MerkleTreeHook string `json:"merkleTreeHook"`
	Root           string `json:"root"`
	Index          uint32 `json:"index"`
}

type multisigOutput struct {
	Checkpoint checkpointOutput `json:"checkpoint"`
	MessageID  string           `json:"messageId,omitempty"`
	LeafIndex  *uint32          `json:"leafIndex,omitempty"`
	Signatures []string         `json:"signatures"`
}

type slotOutput struct {
	Present  bool   `json:"present"`
	Metadata string `json:"metadata,omitempty"`
}

func decodeMetadataCmd() *cobra.Command {
	var (
		variant string
		modules int
	)

	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode multisig or aggregation metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := decodeHex(args[0])
			if err != nil {
				return err
			}

			var out any
			switch variant {
			case variantAggregation:
				slots, err := metadata.DecodeAggregation(data, modules)
				if err != nil {
					return err
				}
				decoded := make([]slotOutput, len(slots))
				for i, slot := range slots {
					decoded[i] = slotOutput{Present: slot.Present}
					if slot.Present {
						decoded[i].Metadata = hexutil.Encode(slot.Metadata)
					}
				}
				out = decoded
			case variantMessageID, variantMerkleRoot:
				kind := config.MessageID
				if variant == variantMerkleRoot {
					kind = config.MerkleRoot
				}
				m, err := metadata.Decode(kind, data)
				if err != nil {
					return err
				}
				out = newMultisigOutput(kind, m)
			default:
				return fmt.Errorf("unknown variant %q (supported: %s, %s, %s)", variant, variantMessageID, variantMerkleRoot, variantAggregation)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&variant, "variant", "v", variantMessageID, "metadata layout (message-id|merkle-root|aggregation)")
	cmd.Flags().IntVarP(&modules, "modules", "n", 0, "number of aggregation submodules")
	return cmd
}

func newMultisigOutput(kind config.MultisigKind, m metadata.MultisigMetadata) multisigOutput {
	out := multisigOutput{
		Checkpoint: checkpointOutput{
			MerkleTreeHook: m.Checkpoint.MerkleTreeHook.String(),
			Root:           m.Checkpoint.Root.Hex(),
			Index:          m.Checkpoint.Index,
		},
		Signatures: make([]string, 0, len(m.Signatures)),
	}
	if kind == config.MerkleRoot {
		out.MessageID = m.MessageID.Hex()
		leaf := m.Proof.Index
		out.LeafIndex = &leaf
	}
	for _, sig := range m.Signatures {
		out.Signatures = append(out.Signatures, hexutil.Encode(sig))
	}
	return out
}

type buildOutput struct {
	MessageID string `json:"messageId"`
	// Metadata is empty when the module needs no metadata.
	Metadata string `json:"metadata"`
}

func buildMetadataCmd(a *app) *cobra.Command {
	var (
		ismPath     string
		rawMessage  string
		hook        string
		index       uint32
		leavesPath  string
		metricsPath string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the metadata a module needs to accept a message",
		Long: `Build the metadata a module needs to accept a message.

Validator checkpoints are fetched from the storages in config.toml. Merkle root
multisig modules additionally need --leaves, a file with one inserted message
id per line in insertion order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ism, err := config.Load(ismPath, a.cfg.Registry())
			if err != nil {
				return err
			}
			raw, err := decodeHex(rawMessage)
			if err != nil {
				return fmt.Errorf("invalid message: %w", err)
			}
			msg, err := util.ParseHyperlaneMessage(raw)
			if err != nil {
				return fmt.Errorf("invalid message: %w", err)
			}
			hookAddr, err := config.ParseAddress(hook)
			if err != nil {
				return err
			}

			dctx := builder.DispatchContext{Message: msg, MerkleTreeHook: hookAddr}
			if leavesPath != "" {
				tree, insertions, err := loadLeaves(leavesPath)
				if err != nil {
					return err
				}
				dctx.Proofs = tree
				dctx.Insertions = insertions
			} else {
				dctx.Insertions = []builder.Insertion{{MessageID: dctx.MessageID(), Index: index}}
			}

			storages, err := a.cfg.Storages(ctx)
			if err != nil {
				return err
			}
			opts, err := a.cfg.BuilderOptions()
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			metrics, err := builder.NewMetrics(reg)
			if err != nil {
				return err
			}
			opts = append(opts, builder.WithLogger(a.logger), builder.WithMetrics(metrics))

			out, buildErr := builder.New(storages, opts...).Build(ctx, ism, dctx)
			if metricsPath != "" {
				if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
					a.logger.Error("failed to write metrics", "path", metricsPath, "err", err)
				}
			}
			if buildErr != nil {
				if builder.IsPolicyOutcome(buildErr) {
					a.logger.Info("module will not accept the message", "reason", buildErr.Error())
				}
				return buildErr
			}

			res := buildOutput{MessageID: dctx.MessageID().Hex()}
			if len(out) > 0 {
				res.Metadata = hexutil.Encode(out)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&ismPath, "ism", "i", "", "YAML config of the security module (required)")
	cmd.Flags().StringVarP(&rawMessage, "message", "m", "", "hex encoded dispatched message (required)")
	cmd.Flags().StringVar(&hook, "hook", "", "merkle tree hook the message was inserted into (required)")
	cmd.Flags().Uint32Var(&index, "index", 0, "insertion index of the message, ignored with --leaves")
	cmd.Flags().StringVar(&leavesPath, "leaves", "", "file with the inserted message ids, one per line")
	cmd.Flags().StringVar(&metricsPath, "metrics-file", "", "write build metrics in the prometheus text format")
	_ = cmd.MarkFlagRequired("ism")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("hook")
	return cmd
}

// loadLeaves replays the inserted message ids of a merkle tree hook.
func loadLeaves(path string) (*merkle.Tree, []builder.Insertion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	tree := merkle.NewTree()
	var insertions []builder.Insertion
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		raw, err := decodeHex(text)
		if err != nil || len(raw) != common.HashLength {
			return nil, nil, fmt.Errorf("%s:%d: invalid message id %q", path, line, text)
		}
		id := common.BytesToHash(raw)
		idx, err := tree.Insert(id)
		if err != nil {
			return nil, nil, err
		}
		insertions = append(insertions, builder.Insertion{MessageID: id, Index: idx})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return tree, insertions, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
