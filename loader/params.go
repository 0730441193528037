package loader

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/aptos-labs/modcache/metrics"
)

// DefaultMaxResolveDepth bounds dependency recursion.  Legitimate dependency
// chains are shallow; the bound is a guard against runaway recursion should
// cycle detection ever be bypassed by a cache inconsistency.
const DefaultMaxResolveDepth = 100

type Params struct {
	Logger  zerolog.Logger
	Tracer  trace.Tracer
	Metrics metrics.CacheMetrics

	MaxResolveDepth int
}

func DefaultParams() Params {
	return Params{
		Logger:          zerolog.Nop(),
		Tracer:          trace.NewNoopTracerProvider().Tracer("modcache"),
		Metrics:         metrics.NewNoopCollector(),
		MaxResolveDepth: DefaultMaxResolveDepth,
	}
}
