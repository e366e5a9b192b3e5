package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type Order struct {
	ID              string            `json:"id"`
	OrderNumber     string            `json:"orderNumber"`
	Status          string            `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DeliveryFee     decimal.Decimal   `json:"deliveryFee"`
	Total           decimal.Decimal   `json:"total"`
	FulfillmentType FulfillmentMethod `json:"fulfillmentType"`
	BranchID        string            `json:"branchId,omitempty"`
	DeliverySlotID  string            `json:"deliverySlotId,omitempty"`
	Items           []OrderItem       `json:"items,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

type Address struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	Street    string `json:"street"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	IsDefault bool   `json:"isDefault"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
}

// AuthResult 登入或註冊成功的回應
type AuthResult struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}
