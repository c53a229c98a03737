package engine

import (
	"context"
	"slices"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEvaluator wraps an Evaluator with an in-memory LRU cache keyed by
// the request fingerprint, so identical runs in one plan hit the engine once.
type CachedEvaluator struct {
	inner   domain.Evaluator
	cache   *lru.Cache[string, []domain.ResultRow]
	metrics *observability.Metrics
}

// NewCachedEvaluator creates a cache decorator around an evaluator. A size
// below one is raised to one.
func NewCachedEvaluator(inner domain.Evaluator, maxEntries int, metrics *observability.Metrics) *CachedEvaluator {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, []domain.ResultRow](max(maxEntries, 1))
	return &CachedEvaluator{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

func (c *CachedEvaluator) Evaluate(ctx context.Context, req domain.EvaluationRequest) ([]domain.ResultRow, error) {
	key := domain.Fingerprint(req)
	if rows, ok := c.cache.Get(key); ok {
		c.metrics.EngineCache.WithLabelValues("hit").Inc()
		return slices.Clone(rows), nil
	}
	c.metrics.EngineCache.WithLabelValues("miss").Inc()

	rows, err := c.inner.Evaluate(ctx, req)
	if err != nil {
		return rows, err
	}
	// Only cache non-empty results so an engine that had no data yet is asked again.
	if len(rows) > 0 {
		c.cache.Add(key, slices.Clone(rows))
	}
	return rows, nil
}
