package openweather

import (
	"context"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/patrickmn/go-cache"
)

const currentKey = "current"

// CachedProvider wraps a WeatherProvider with a TTL cache. Errors and empty
// results are not cached so the next call retries.
type CachedProvider struct {
	inner   domain.WeatherProvider
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.WeatherProvider, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New(ttl, ttl*2),
		metrics: metrics,
	}
}

func (c *CachedProvider) CurrentWeather(ctx context.Context) (*domain.Weather, error) {
	if cached, found := c.cache.Get(currentKey); found {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		w := *cached.(*domain.Weather)
		return &w, nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	w, err := c.inner.CurrentWeather(ctx)
	if err != nil || w == nil {
		return w, err
	}
	stored := *w
	c.cache.Set(currentKey, &stored, cache.DefaultExpiration)
	return w, nil
}
