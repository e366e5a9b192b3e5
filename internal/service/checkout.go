package service

import (
	"context"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/checkout"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
)

// CheckoutService 結帳流程的後端呼叫
type CheckoutService struct {
	api      client.API
	branches *BranchService
}

func NewCheckoutService(api client.API, branches *BranchService) *CheckoutService {
	return &CheckoutService{api: api, branches: branches}
}

var _ checkout.API = (*CheckoutService)(nil)

// CartID 後端購物車 id
func (s *CheckoutService) CartID(ctx context.Context) (string, error) {
	var rc model.RemoteCart
	if err := s.api.Get(ctx, "/cart", &rc); err != nil {
		return "", err
	}
	return rc.ID, nil
}

func (s *CheckoutService) ListDeliverySlots(ctx context.Context, branchID string) ([]model.DeliverySlot, error) {
	return s.branches.ListDeliverySlots(ctx, branchID)
}

func (s *CheckoutService) Preview(ctx context.Context, req model.PreviewRequest) (*model.CheckoutPreview, error) {
	out := &model.CheckoutPreview{}
	if err := s.api.Post(ctx, "/checkout/preview", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CheckoutService) Confirm(ctx context.Context, req model.ConfirmRequest, idempotencyKey string) (*model.ConfirmResult, error) {
	out := &model.ConfirmResult{}
	if err := s.api.Post(ctx, "/checkout/confirm", req, out, client.WithIdempotencyKey(idempotencyKey)); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentService 卡片 token 化，CLI 的 PaymentTokenizer
type PaymentService struct {
	api client.API
}

func NewPaymentService(api client.API) *PaymentService {
	return &PaymentService{api: api}
}

var _ checkout.PaymentTokenizer = (*PaymentService)(nil)

func (s *PaymentService) CreateToken(ctx context.Context, card model.Card) (*model.PaymentToken, error) {
	out := &model.PaymentToken{}
	if err := s.api.Post(ctx, "/payments/tokens", card, out); err != nil {
		return nil, err
	}
	return out, nil
}
