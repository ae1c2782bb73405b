package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/fxpricing/internal/fxpricing/domain"
)

const defaultTTL = 15 * time.Minute

// PricingCache 以货币对为键缓存最新定价结果
type PricingCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ domain.PricingCache = (*PricingCache)(nil)

// NewPricingCache ttl 非正时使用默认值
func NewPricingCache(client redis.UniversalClient, ttl time.Duration) *PricingCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PricingCache{
		client: client,
		prefix: "fxpricing:latest:",
		ttl:    ttl,
	}
}

func (c *PricingCache) Set(ctx context.Context, result *domain.PricingResult) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(result.Symbol), data, c.ttl).Err()
}

// Get 未命中返回 nil, nil
func (c *PricingCache) Get(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, nil
	}
	data, err := c.client.Get(ctx, c.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result domain.PricingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *PricingCache) key(symbol string) string {
	return fmt.Sprintf("%s%s", c.prefix, symbol)
}
