// Package cache keeps a read-through copy of catalog products in redis so the
// checkout path does not hit the database for every cart line.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

type productCache struct {
	repository.ProductRepository

	rdb *redis.Client
	ttl time.Duration
	log *log.Helper
}

// NewProductCache wraps repo so that FindByID is served from redis when
// possible. Writes go to the repository and drop the cached entry. Redis
// failures degrade to the repository, they never fail a read.
func NewProductCache(repo repository.ProductRepository, rdb *redis.Client, ttl time.Duration, logger log.Logger) repository.ProductRepository {
	return &productCache{
		ProductRepository: repo,
		rdb:               rdb,
		ttl:               ttl,
		log:               log.NewHelper(log.With(logger, "module", "cache/product")),
	}
}

func productKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

func (c *productCache) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	key := productKey(productID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product model.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		c.log.Warnf("drop corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnf("redis get %s: %v", key, err)
	}

	product, err := c.ProductRepository.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warnf("redis set %s: %v", key, err)
		}
	}

	return product, nil
}

func (c *productCache) Update(ctx context.Context, product *model.Product) error {
	if err := c.ProductRepository.Update(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, product.ID)
	return nil
}

func (c *productCache) invalidate(ctx context.Context, productID string) {
	if err := c.rdb.Del(ctx, productKey(productID)).Err(); err != nil {
		c.log.Warnf("redis del %s: %v", productKey(productID), err)
	}
}
