package usecase

import (
	"context"
	"time"

	"fundbridge/internal/domain/entity"
	"fundbridge/pkg/cache"
	"fundbridge/pkg/metrics"
)

// FeatureUseCase answers "may this user use this feature" through an
// explicit, injectable TTL cache rather than a process-wide singleton map.
type FeatureUseCase struct {
	client  FeatureClient
	cache   *cache.TTLCache
	metrics *metrics.Metrics
}

func NewFeatureUseCase(client FeatureClient, c *cache.TTLCache, m *metrics.Metrics) *FeatureUseCase {
	if c == nil {
		c = cache.NewTTLCache(5*time.Minute, nil)
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &FeatureUseCase{client: client, cache: c, metrics: m}
}

func featureKey(userID, feature string) string {
	return userID + ":" + feature
}

func (uc *FeatureUseCase) HasAccess(ctx context.Context, userID, feature string) (bool, error) {
	key := featureKey(userID, feature)
	if cached, ok := uc.cache.Get(key); ok {
		uc.metrics.FeatureCacheHits.Inc()
		return cached.(*entity.FeatureGrant).Allowed, nil
	}

	uc.metrics.FeatureCacheMiss.Inc()
	grant, err := uc.client.CheckFeatureAccess(ctx, userID, feature)
	if err != nil {
		return false, err
	}
	uc.cache.Set(key, grant)
	return grant.Allowed, nil
}

// Invalidate drops one cached grant, forcing the next lookup to the backend.
func (uc *FeatureUseCase) Invalidate(userID, feature string) {
	uc.cache.Invalidate(featureKey(userID, feature))
}
