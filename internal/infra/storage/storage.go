package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store 對應前端的 sessionStorage / localStorage
// 所有實作都必須可同時被多個goroutine使用
type Store interface {
	// Get 回傳值與是否存在
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	// Delete 不存在的 key 不視為錯誤
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON key 不存在時回傳 false
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
