package predictapi

import (
	"context"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/lru"
	"github.com/couchcryptid/aq-forecast-gateway/internal/observability"
)

// ModelSource answers questions about the trained models and the data
// behind them. Client implements it.
type ModelSource interface {
	ModelDetail(ctx context.Context, siteID int) (domain.ModelDetailResponse, error)
	ModelsHealth(ctx context.Context) (domain.ModelHealthResponse, error)
	ModelMetrics(ctx context.Context) (domain.ModelMetrics, error)
	Historical(ctx context.Context, siteID int, q domain.HistoricalQuery) (domain.HistoricalDataResponse, error)
}

var _ ModelSource = (*Client)(nil)

// CachedModelCatalog wraps a ModelSource with an in-memory LRU cache of
// per-site model details. Every other lookup goes straight to the source.
type CachedModelCatalog struct {
	ModelSource
	cache   *lru.Cache[int, domain.ModelDetailResponse]
	metrics *observability.Metrics
}

// NewCachedModelCatalog creates a cache decorator around a model source.
func NewCachedModelCatalog(inner ModelSource, maxEntries int, metrics *observability.Metrics) *CachedModelCatalog {
	return &CachedModelCatalog{
		ModelSource: inner,
		cache:       lru.New[int, domain.ModelDetailResponse](maxEntries),
		metrics:     metrics,
	}
}

// ModelDetail returns the cached detail for siteID, asking the source on a miss.
func (c *CachedModelCatalog) ModelDetail(ctx context.Context, siteID int) (domain.ModelDetailResponse, error) {
	if detail, ok := c.cache.Get(siteID); ok {
		c.metrics.ModelCache.WithLabelValues("hit").Inc()
		return detail, nil
	}
	c.metrics.ModelCache.WithLabelValues("miss").Inc()

	detail, err := c.ModelSource.ModelDetail(ctx, siteID)
	if err != nil {
		return detail, err
	}
	// Only cache loaded models so a site whose model is still training is re-checked.
	if detail.Success {
		c.cache.Put(siteID, detail)
	}
	return detail, nil
}
