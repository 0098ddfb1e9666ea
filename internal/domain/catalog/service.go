// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Service fronts a ProductSource with a shared Redis cache. Concurrent misses
// collapse into one upstream request and failures are never cached.
type Service struct {
	source      ProductSource
	redisClient *redis.Client
	cacheKey    string
	ttl         time.Duration
	group       singleflight.Group
	logger      *logrus.Logger
}

// NewService creates a new catalog service. A nil redis client or a zero ttl disables caching.
func NewService(source ProductSource, redisClient *redis.Client, keyPrefix string, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		source:      source,
		redisClient: redisClient,
		cacheKey:    keyPrefix + ":catalog:products",
		ttl:         ttl,
		logger:      logger,
	}
}

// Products returns the full catalog
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	if products, ok := s.cached(ctx); ok {
		return products, nil
	}

	// the flight is shared, so it must outlive the caller that started it
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("products", func() (interface{}, error) {
		products, err := s.source.List(flightCtx)
		if err != nil {
			return nil, err
		}
		s.store(flightCtx, products)
		return products, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Product), nil
	}
}

// Search applies a listing query to the catalog
func (s *Service) Search(ctx context.Context, q Query) ([]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(products, q), nil
}

// Categories returns the distinct categories of the catalog
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(products), nil
}

// Product returns a single product, served from the cached catalog when possible
func (s *Service) Product(ctx context.Context, id int64) (*Product, error) {
	if products, ok := s.cached(ctx); ok {
		for i := range products {
			if products[i].ID == id {
				p := products[i]
				return &p, nil
			}
		}
	}
	return s.source.Get(ctx, id)
}

func (s *Service) cached(ctx context.Context) ([]Product, bool) {
	if s.redisClient == nil || s.ttl <= 0 {
		return nil, false
	}

	data, err := s.redisClient.Get(ctx, s.cacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("Catalog cache read failed")
		}
		return nil, false
	}

	var products []Product
	if err := json.Unmarshal([]byte(data), &products); err != nil {
		s.logger.WithError(err).Warn("Discarding malformed catalog cache entry")
		return nil, false
	}
	return products, true
}

func (s *Service) store(ctx context.Context, products []Product) {
	if s.redisClient == nil || s.ttl <= 0 {
		return
	}

	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, s.cacheKey, data, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Warn("Catalog cache write failed")
	}
}
