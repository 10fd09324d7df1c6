// Package builder assembles the metadata a security module needs to verify a
// message: it gathers validator checkpoints until a quorum agrees and
// recursively builds aggregation and routing submodules.
package builder

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/celestiaorg/ismkit/pkg/ism/checkpoint"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

const (
	DefaultMaxDepth          = 10
	DefaultAttemptTimeout    = 30 * time.Second
	DefaultMinAttemptTimeout = 500 * time.Millisecond
	DefaultFetchTimeout      = 10 * time.Second

	tracerName = "github.com/celestiaorg/ismkit/pkg/ism/builder"
)

// SubmoduleBuilder builds the metadata of one submodule with the remaining
// depth budget. A nil result with a nil error means the submodule needs no
// metadata slot.
type SubmoduleBuilder func(ctx context.Context, cfg config.Config, dctx DispatchContext, depth uint32) ([]byte, error)

type Option func(b *Builder)

// Builder builds metadata for a configured module tree.
type Builder struct {
	fetcher           checkpoint.Fetcher
	cache             *checkpoint.Cache
	logger            log.Logger
	metrics           *Metrics
	tracer            trace.Tracer
	maxDepth          uint32
	attemptTimeout    time.Duration
	minAttemptTimeout time.Duration
	fetchTimeout      time.Duration
}

func WithLogger(logger log.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(b *Builder) {
		b.tracer = tracer
	}
}

// WithCache puts a validator checkpoint cache in front of the fetcher.
func WithCache(cache *checkpoint.Cache) Option {
	return func(b *Builder) {
		b.cache = cache
	}
}

func WithMaxDepth(depth uint32) Option {
	return func(b *Builder) {
		b.maxDepth = depth
	}
}

// WithAttemptTimeout sets the timeout of a top level submodule attempt. Deeper
// attempts get a proportionally smaller share, never less than floor.
func WithAttemptTimeout(timeout, floor time.Duration) Option {
	return func(b *Builder) {
		b.attemptTimeout = timeout
		b.minAttemptTimeout = floor
	}
}

func WithFetchTimeout(timeout time.Duration) Option {
	return func(b *Builder) {
		b.fetchTimeout = timeout
	}
}

func New(fetcher checkpoint.Fetcher, opts ...Option) *Builder {
	b := &Builder{
		fetcher:           fetcher,
		logger:            log.NewNopLogger(),
		tracer:            otel.Tracer(tracerName),
		maxDepth:          DefaultMaxDepth,
		attemptTimeout:    DefaultAttemptTimeout,
		minAttemptTimeout: DefaultMinAttemptTimeout,
		fetchTimeout:      DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("module", "ism/builder")
	return b
}

// Build returns the metadata for cfg. A nil result with a nil error means the
// module is satisfied without metadata.
func (b *Builder) Build(ctx context.Context, cfg config.Config, dctx DispatchContext) ([]byte, error) {
	return b.build(ctx, cfg, dctx, b.maxDepth)
}

func (b *Builder) build(ctx context.Context, cfg config.Config, dctx DispatchContext, depth uint32) (out []byte, err error) {
	if cfg == nil {
		return nil, config.ErrMissingModule
	}
	kind := string(cfg.Kind())
	ctx, span := b.tracer.Start(ctx, "ism.build", trace.WithAttributes(
		attribute.String("ism.kind", kind),
		attribute.Int("ism.depth", int(depth)),
		attribute.Int64("message.origin", int64(dctx.Message.Origin)),
	))
	started := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		b.metrics.observeBuild(kind, result, started)
		span.End()
	}()

	if agg, ok := cfg.(*config.AggregationConfig); ok {
		return b.BuildAggregationMetadata(ctx, agg, dctx, b.build, depth)
	}
	if depth == 0 {
		return nil, errorsmod.Wrapf(ErrMaxDepthExceeded, "building %s", kind)
	}

	switch c := cfg.(type) {
	case *config.MultisigConfig:
		return b.BuildMultisigMetadata(ctx, c, dctx, b.fetcherFor(dctx))
	case *config.WeightedMultisigConfig:
		return b.BuildWeightedMultisigMetadata(ctx, c, dctx, b.fetcherFor(dctx))
	case *config.RoutingConfig:
		return b.buildRouting(ctx, c, dctx, depth)
	case *config.AmountRoutingConfig:
		return b.buildAmountRouting(ctx, c, dctx, depth)
	case *config.PausableConfig:
		if c.Paused {
			return nil, errorsmod.Wrapf(ErrModulePaused, "%s", c.Address)
		}
		return []byte{}, nil
	case *config.TestConfig, *config.TrustedRelayerConfig, *config.OpStackConfig:
		return []byte{}, nil
	}
	return nil, errorsmod.Wrapf(ErrUnsupportedModule, "%s", kind)
}

func (b *Builder) fetcherFor(dctx DispatchContext) checkpoint.Fetcher {
	if b.cache == nil {
		return b.fetcher
	}
	return b.cache.Wrap(dctx.Message.Origin, b.fetcher)
}

// attemptTimeoutFor scales the top level attempt timeout with the remaining depth.
func (b *Builder) attemptTimeoutFor(depth uint32) time.Duration {
	if b.maxDepth == 0 {
		return b.attemptTimeout
	}
	timeout := b.attemptTimeout * time.Duration(depth) / time.Duration(b.maxDepth)
	if timeout < b.minAttemptTimeout {
		return b.minAttemptTimeout
	}
	return timeout
}
