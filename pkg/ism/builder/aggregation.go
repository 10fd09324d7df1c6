package builder

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/metadata"
)

type attemptResult struct {
	metadata []byte
	err      error
}

// BuildAggregationMetadata builds every submodule concurrently, each attempt
// bounded by a timeout that shrinks with depth. Failed or timed out
// submodules become absent slots. Only the first Threshold present slots, in
// module order, are kept. At depth zero the aggregation is absent.
func (b *Builder) BuildAggregationMetadata(
	ctx context.Context,
	cfg *config.AggregationConfig,
	dctx DispatchContext,
	buildSubmodule SubmoduleBuilder,
	depth uint32,
) ([]byte, error) {
	if depth == 0 {
		b.logger.Debug("aggregation depth budget exhausted", "ism", cfg.Address.String())
		return nil, nil
	}

	timeout := b.attemptTimeoutFor(depth)
	slots := make([]metadata.Slot, len(cfg.Modules))
	var g errgroup.Group
	for i, sub := range cfg.Modules {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan attemptResult, 1)
			go func() {
				meta, err := buildSubmodule(actx, sub, dctx, depth-1)
				done <- attemptResult{metadata: meta, err: err}
			}()

			select {
			case res := <-done:
				if res.err != nil {
					b.logger.Debug("submodule failed", "index", i, "kind", string(sub.Kind()), "err", res.err)
					return nil
				}
				if res.metadata != nil {
					slots[i] = metadata.PresentSlot(res.metadata)
				}
			case <-actx.Done():
				b.logger.Debug("submodule timed out", "index", i, "kind", string(sub.Kind()), "timeout", timeout)
			}
			return nil
		})
	}
	_ = g.Wait()

	present := metadata.PresentCount(slots)
	if present < int(cfg.Threshold) {
		return nil, errorsmod.Wrapf(ErrQuorumNotMet, "%d of %d submodules present, %d required", present, len(slots), cfg.Threshold)
	}

	kept := 0
	for i := range slots {
		if !slots[i].Present {
			continue
		}
		if kept == int(cfg.Threshold) {
			slots[i] = metadata.Slot{}
			continue
		}
		kept++
	}
	return metadata.EncodeAggregation(slots), nil
}
