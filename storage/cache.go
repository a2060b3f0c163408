package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"abcretail/domain"
)

const productsCacheKey = "products:all"

// Cache wraps a Gateway with a Redis-backed cache for the product
// listing, the hottest read of the storefront. Every other operation is
// delegated unchanged; product writes evict the cached listing.
type Cache struct {
	*Gateway
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and
// TTL. A nil client disables caching.
func NewCache(base *Gateway, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base gateway is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Gateway: base, redis: client, ttl: ttl}
}

func (c *Cache) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok := c.loadFromCache(ctx); ok {
		return products, nil
	}

	products, err := c.Gateway.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, products)
	return products, nil
}

func (c *Cache) AddProduct(ctx context.Context, p domain.Product) error {
	if err := c.Gateway.AddProduct(ctx, p); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) UpdateProduct(ctx context.Context, p domain.Product) error {
	if err := c.Gateway.UpdateProduct(ctx, p); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) DeleteProduct(ctx context.Context, id string) error {
	if err := c.Gateway.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context) ([]domain.Product, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, productsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, productsCacheKey).Err()
		}
		return nil, false
	}
	var products []domain.Product
	if err := sonic.ConfigStd.Unmarshal(data, &products); err != nil {
		_ = c.redis.Del(ctx, productsCacheKey).Err()
		return nil, false
	}
	return products, true
}

func (c *Cache) store(ctx context.Context, products []domain.Product) {
	if c.redis == nil {
		return
	}
	data, err := sonic.ConfigStd.Marshal(products)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, productsCacheKey, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, productsCacheKey).Err()
}
