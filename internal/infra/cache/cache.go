package cache

import (
	"context"
	"time"
)

// Cache 以 json 保存任意值
type Cache interface {
	// Get 找不到時回傳 false, nil
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// NopCache 未設定 redis 時使用，永遠 miss
type NopCache struct{}

var _ Cache = NopCache{}

func (NopCache) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (NopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (NopCache) DeletePrefix(context.Context, string) error            { return nil }
