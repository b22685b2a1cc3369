package cache

import (
	"context"
	"time"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
)

// PricingCache caches product pricing contexts for quote previews so live
// quantity edits do not hit Postgres on every keystroke.
type PricingCache interface {
	Get(ctx context.Context, key string) (*domain.Product, bool, error)
	Set(ctx context.Context, key string, value *domain.Product, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopPricingCache struct{}

func (NoopPricingCache) Get(_ context.Context, _ string) (*domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopPricingCache) Set(_ context.Context, _ string, _ *domain.Product, _ time.Duration) error {
	return nil
}

func (NoopPricingCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
