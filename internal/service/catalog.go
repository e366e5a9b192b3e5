package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/cache"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/rs/zerolog"
)

const catalogCachePrefix = "catalog:"

// CatalogService 商品查詢，結果放進 response cache
type CatalogService struct {
	api    client.API
	cache  cache.Cache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCatalogService(api client.API, c cache.Cache, ttl time.Duration, logger *zerolog.Logger) *CatalogService {
	if c == nil {
		c = cache.NopCache{}
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &CatalogService{api: api, cache: c, ttl: ttl, logger: logger}
}

func (s *CatalogService) ListProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	params := q.Params()
	var out []model.Product
	err := cached(ctx, s.cache, s.logger, catalogCachePrefix+"products:"+queryKey(params), s.ttl, &out, func() error {
		return s.api.Get(ctx, "/catalog/products", &out, client.WithQuery(params))
	})
	return out, err
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	out := &model.Product{}
	err := cached(ctx, s.cache, s.logger, catalogCachePrefix+"product:"+id, s.ttl, out, func() error {
		return s.api.Get(ctx, "/catalog/products/"+url.PathEscape(id), out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := cached(ctx, s.cache, s.logger, catalogCachePrefix+"categories", s.ttl, &out, func() error {
		return s.api.Get(ctx, "/catalog/categories", &out)
	})
	return out, err
}

// Invalidate 後台異動商品後呼叫
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, catalogCachePrefix); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}

/*
cached 先查 cache，miss 時呼叫 fetch 並寫回
cache 本身的錯誤只記 log，不影響查詢
*/
func cached(ctx context.Context, c cache.Cache, logger *zerolog.Logger, key string, ttl time.Duration, dst any, fetch func() error) error {
	hit, err := c.Get(ctx, key, dst)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}
	if hit {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	if err := c.Set(ctx, key, dst, ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return nil
}

// queryKey 依 key 排序，相同條件得到相同 cache key
func queryKey(params map[string]any) string {
	if len(params) == 0 {
		return "all"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, "&")
}
