package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/shopspring/decimal"
)

// BuildSnapshot 以購物車內容、試算與下單結果組成成功頁資料
// 沒有試算時小計由購物車計算，運費為0
func BuildSnapshot(s State, items []model.CartItem, result *model.ConfirmResult, now time.Time) *model.OrderSuccessSnapshot {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	fee := decimal.Zero
	total := subtotal
	if s.Preview != nil {
		subtotal = s.Preview.Subtotal
		fee = s.Preview.DeliveryFee
		total = s.Preview.Total
	}
	if !result.Total.IsZero() {
		total = result.Total
	}

	snap := &model.OrderSuccessSnapshot{
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		Items:       items,
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       total,
		Method:      s.Method,
		CreatedAt:   now.UTC(),
	}
	if snap.Items == nil {
		snap.Items = []model.CartItem{}
	}
	switch s.Method {
	case model.Pickup:
		snap.BranchID = s.BranchID
		snap.Fulfillment = fmt.Sprintf("Store pickup at branch %s", s.BranchID)
	default:
		snap.SlotLabel = s.SlotLabel()
		if snap.SlotLabel != "" {
			snap.Fulfillment = "Home delivery, " + snap.SlotLabel
		} else {
			snap.Fulfillment = "Home delivery"
		}
	}
	return snap
}

// LoadOrderSuccess 重新整理成功頁時由 durable scope 取回快照
func LoadOrderSuccess(ctx context.Context, store storage.Store, orderID string) (*model.OrderSuccessSnapshot, bool, error) {
	snap := &model.OrderSuccessSnapshot{}
	ok, err := storage.GetJSON(ctx, store, constants.OrderSuccessKeyPrefix+orderID, snap)
	if err != nil || !ok {
		return nil, false, err
	}
	return snap, true, nil
}
