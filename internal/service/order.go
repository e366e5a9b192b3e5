package service

import (
	"context"
	"net/url"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
)

type OrderService struct {
	api client.API
}

func NewOrderService(api client.API) *OrderService {
	return &OrderService{api: api}
}

func (s *OrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	if err := s.api.Get(ctx, "/orders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	out := &model.Order{}
	if err := s.api.Get(ctx, "/orders/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, id string) (*model.Order, error) {
	out := &model.Order{}
	if err := s.api.Post(ctx, "/orders/"+url.PathEscape(id)+"/cancel", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
