package checkout

import (
	"context"

	"github.com/RoyceAzure/lab/freshmarket/internal/model"
)

type Step int

const (
	StepFulfillment Step = iota
	StepSchedule
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepFulfillment:
		return "FULFILLMENT"
	case StepSchedule:
		return "SCHEDULE"
	case StepPayment:
		return "PAYMENT"
	default:
		return "UNKNOWN"
	}
}

// State 結帳流程的衍生狀態，不會被保存
type State struct {
	Step         Step
	Method       model.FulfillmentMethod
	ServerCartID string
	BranchID     string
	SlotOptions  []model.SlotOption
	SlotID       string
	Preview      *model.CheckoutPreview
	// Error 付款失敗時顯示的訊息，可重試
	Error      string
	Submitting bool
}

func (s State) clone() State {
	out := s
	if s.SlotOptions != nil {
		out.SlotOptions = make([]model.SlotOption, len(s.SlotOptions))
		copy(out.SlotOptions, s.SlotOptions)
	}
	if s.Preview != nil {
		p := *s.Preview
		out.Preview = &p
	}
	return out
}

// SlotLabel 目前選擇的時段文字
func (s State) SlotLabel() string {
	for _, o := range s.SlotOptions {
		if o.ID == s.SlotID {
			return o.Label
		}
	}
	return ""
}

// API 結帳流程需要的後端呼叫，由 service.CheckoutService 與 BranchService 實作
type API interface {
	CartID(ctx context.Context) (string, error)
	ListDeliverySlots(ctx context.Context, branchID string) ([]model.DeliverySlot, error)
	Preview(ctx context.Context, req model.PreviewRequest) (*model.CheckoutPreview, error)
	Confirm(ctx context.Context, req model.ConfirmRequest, idempotencyKey string) (*model.ConfirmResult, error)
}

// Cart 下單成功後需要的購物車操作
type Cart interface {
	Items() []model.CartItem
	DiscardLocal(ctx context.Context) error
}

// PaymentTokenizer 外部提供的卡片 token 化
type PaymentTokenizer interface {
	CreateToken(ctx context.Context, card model.Card) (*model.PaymentToken, error)
}

type TokenizerFunc func(ctx context.Context, card model.Card) (*model.PaymentToken, error)

func (f TokenizerFunc) CreateToken(ctx context.Context, card model.Card) (*model.PaymentToken, error) {
	return f(ctx, card)
}
