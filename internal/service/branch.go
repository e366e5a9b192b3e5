package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/cache"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/rs/zerolog"
)

type BranchService struct {
	api    client.API
	cache  cache.Cache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewBranchService(api client.API, c cache.Cache, ttl time.Duration, logger *zerolog.Logger) *BranchService {
	if c == nil {
		c = cache.NopCache{}
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &BranchService{api: api, cache: c, ttl: ttl, logger: logger}
}

func (s *BranchService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var out []model.Branch
	err := cached(ctx, s.cache, s.logger, "branches", s.ttl, &out, func() error {
		return s.api.Get(ctx, "/branches", &out)
	})
	return out, err
}

// ListDeliverySlots 時段容量隨時變動，不走 cache
func (s *BranchService) ListDeliverySlots(ctx context.Context, branchID string) ([]model.DeliverySlot, error) {
	var out []model.DeliverySlot
	if err := s.api.Get(ctx, "/delivery-slots", &out, client.WithQuery(map[string]any{"branchId": branchID})); err != nil {
		return nil, err
	}
	return out, nil
}
