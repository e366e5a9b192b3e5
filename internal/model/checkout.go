package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type FulfillmentMethod string

const (
	Delivery FulfillmentMethod = "DELIVERY"
	Pickup   FulfillmentMethod = "PICKUP"
)

type Branch struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	IsActive bool   `json:"isActive"`
}

type DeliverySlot struct {
	ID                string    `json:"id"`
	BranchID          string    `json:"branchId"`
	StartsAt          time.Time `json:"startsAt"`
	EndsAt            time.Time `json:"endsAt"`
	RemainingCapacity *int      `json:"remainingCapacity,omitempty"`
}

// SlotOption 畫面上的時段選項
type SlotOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type PreviewRequest struct {
	CartID          string            `json:"cartId"`
	FulfillmentType FulfillmentMethod `json:"fulfillmentType"`
	BranchID        string            `json:"branchId,omitempty"`
	DeliverySlotID  string            `json:"deliverySlotId,omitempty"`
}

// CheckoutPreview 試算結果，不代表承諾
type CheckoutPreview struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryFee  decimal.Decimal `json:"deliveryFee"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency,omitempty"`
	MissingItems []MissingItem   `json:"missingItems,omitempty"`
}

type MissingItem struct {
	ProductID         string `json:"productId"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
}

type ConfirmRequest struct {
	CartID          string            `json:"cartId"`
	PaymentTokenID  string            `json:"paymentTokenId"`
	FulfillmentType FulfillmentMethod `json:"fulfillmentType"`
	BranchID        string            `json:"branchId,omitempty"`
	DeliverySlotID  string            `json:"deliverySlotId,omitempty"`
}

type ConfirmResult struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
}

// OrderSuccessSnapshot 下單成功頁的資料，只存在前端
type OrderSuccessSnapshot struct {
	OrderID     string            `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	Items       []CartItem        `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	DeliveryFee decimal.Decimal   `json:"deliveryFee"`
	Total       decimal.Decimal   `json:"total"`
	Fulfillment string            `json:"fulfillment"`
	Method      FulfillmentMethod `json:"method"`
	BranchID    string            `json:"branchId,omitempty"`
	SlotLabel   string            `json:"slotLabel,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Card 付款卡片輸入，只交給外部 tokenizer
type Card struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holderName,omitempty"`
}

type PaymentToken struct {
	ID    string `json:"id"`
	Last4 string `json:"last4,omitempty"`
	Brand string `json:"brand,omitempty"`
}
