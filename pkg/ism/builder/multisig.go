package builder

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/ismkit/pkg/ism/checkpoint"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/metadata"
)

// BuildMultisigMetadata collects a quorum of validator signatures over the
// checkpoint of the dispatched message and encodes them in the layout of
// cfg.Variant.
func (b *Builder) BuildMultisigMetadata(
	ctx context.Context,
	cfg *config.MultisigConfig,
	dctx DispatchContext,
	fetcher checkpoint.Fetcher,
) ([]byte, error) {
	insertion, ok := dctx.Insertion()
	if !ok {
		return nil, errorsmod.Wrapf(ErrNoMatchingInsertion, "message %s", dctx.MessageID())
	}

	weights := make([]uint64, len(cfg.Validators))
	for i := range weights {
		weights[i] = 1
	}
	quorum, err := b.collectQuorum(ctx, dctx, insertion, cfg.Validators, weights, uint64(cfg.Threshold), fetcher)
	if err != nil {
		return nil, err
	}
	return b.encodeQuorum(ctx, cfg.Variant, dctx, insertion, quorum)
}

// BuildWeightedMultisigMetadata is BuildMultisigMetadata for weighted
// validator sets: signatures are taken in validator order until their
// combined weight reaches the threshold weight.
func (b *Builder) BuildWeightedMultisigMetadata(
	ctx context.Context,
	cfg *config.WeightedMultisigConfig,
	dctx DispatchContext,
	fetcher checkpoint.Fetcher,
) ([]byte, error) {
	insertion, ok := dctx.Insertion()
	if !ok {
		return nil, errorsmod.Wrapf(ErrNoMatchingInsertion, "message %s", dctx.MessageID())
	}

	validators := make([]common.Address, len(cfg.Validators))
	weights := make([]uint64, len(cfg.Validators))
	for i, v := range cfg.Validators {
		validators[i] = v.Signer
		weights[i] = v.Weight
	}
	quorum, err := b.collectQuorum(ctx, dctx, insertion, validators, weights, cfg.ThresholdWeight, fetcher)
	if err != nil {
		return nil, err
	}
	return b.encodeQuorum(ctx, cfg.Variant, dctx, insertion, quorum)
}

// collectQuorum fetches every validator's checkpoint, drops the ones that do
// not match the insertion or were not signed by the validator, and returns
// the signed checkpoints, in validator order, of the first root whose
// accumulated weight reaches threshold.
func (b *Builder) collectQuorum(
	ctx context.Context,
	dctx DispatchContext,
	insertion Insertion,
	validators []common.Address,
	weights []uint64,
	threshold uint64,
	fetcher checkpoint.Fetcher,
) ([]*checkpoint.SignedCheckpoint, error) {
	signed := b.fetchAll(ctx, validators, insertion.Index, fetcher)

	type group struct {
		weight  uint64
		members []*checkpoint.SignedCheckpoint
	}
	groups := make(map[common.Hash]*group)
	var roots []common.Hash

	for i, sc := range signed {
		if sc == nil {
			continue
		}
		if err := b.checkCheckpoint(sc, validators[i], dctx, insertion); err != nil {
			b.logger.Debug("dropping checkpoint", "validator", validators[i].Hex(), "index", insertion.Index, "err", err)
			b.metrics.observeFetch("invalid")
			continue
		}
		root := sc.Value.Root
		g, ok := groups[root]
		if !ok {
			g = &group{}
			groups[root] = g
			roots = append(roots, root)
		}
		g.members = append(g.members, sc)
		g.weight += weights[i]

		if g.weight >= threshold {
			return g.members, nil
		}
	}

	if len(roots) > 1 {
		b.logger.Info("validators disagree on checkpoint root", "index", insertion.Index, "roots", len(roots))
	}
	var best uint64
	for _, g := range groups {
		if g.weight > best {
			best = g.weight
		}
	}
	return nil, errorsmod.Wrapf(ErrInsufficientSignatures, "message %s: %d of %d required", dctx.MessageID(), best, threshold)
}

// fetchAll fetches the checkpoint of every validator concurrently. A failed
// fetch leaves a nil entry and never cancels its siblings.
func (b *Builder) fetchAll(ctx context.Context, validators []common.Address, index uint32, fetcher checkpoint.Fetcher) []*checkpoint.SignedCheckpoint {
	out := make([]*checkpoint.SignedCheckpoint, len(validators))
	var g errgroup.Group
	for i, validator := range validators {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
			defer cancel()

			sc, err := fetcher.FetchCheckpoint(fctx, validator, index)
			if err != nil {
				b.logger.Debug("failed to fetch checkpoint", "validator", validator.Hex(), "index", index, "err", err)
				b.metrics.observeFetch("error")
				return nil
			}
			b.metrics.observeFetch("ok")
			out[i] = sc
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (b *Builder) checkCheckpoint(sc *checkpoint.SignedCheckpoint, validator common.Address, dctx DispatchContext, insertion Insertion) error {
	switch {
	case sc.Value.MerkleTreeHook != dctx.MerkleTreeHook:
		return errorsmod.Wrapf(checkpoint.ErrMalformed, "merkle tree hook %s", sc.Value.MerkleTreeHook)
	case sc.Value.MessageID != insertion.MessageID:
		return errorsmod.Wrapf(checkpoint.ErrMalformed, "message id %s", sc.Value.MessageID)
	case sc.Value.Index != insertion.Index:
		return errorsmod.Wrapf(checkpoint.ErrMalformed, "index %d", sc.Value.Index)
	case sc.Value.Origin != dctx.Message.Origin:
		return errorsmod.Wrapf(checkpoint.ErrMalformed, "origin %d", sc.Value.Origin)
	}
	return sc.VerifySigner(validator)
}

func (b *Builder) encodeQuorum(
	ctx context.Context,
	variant config.MultisigKind,
	dctx DispatchContext,
	insertion Insertion,
	quorum []*checkpoint.SignedCheckpoint,
) ([]byte, error) {
	m := metadata.MultisigMetadata{
		Checkpoint: quorum[0].Value.Checkpoint,
		MessageID:  insertion.MessageID,
		Signatures: make([][]byte, 0, len(quorum)),
	}
	for _, sc := range quorum {
		m.Signatures = append(m.Signatures, sc.Signature)
	}

	if variant == config.MerkleRoot {
		if dctx.Proofs == nil {
			return nil, ErrMissingProofProvider
		}
		proof, err := dctx.Proofs.Proof(ctx, insertion.Index, m.Checkpoint.Index)
		if err != nil {
			return nil, err
		}
		if proof.Root() != m.Checkpoint.Root {
			return nil, errorsmod.Wrapf(ErrProofRootMismatch, "proof root %s, checkpoint root %s", proof.Root(), m.Checkpoint.Root)
		}
		m.Proof = proof
	}

	b.logger.Debug("built multisig metadata", "variant", variant.String(), "index", m.Checkpoint.Index, "signatures", len(m.Signatures))
	return metadata.Encode(variant, m)
}
