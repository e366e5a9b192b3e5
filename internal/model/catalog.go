package model

import "github.com/shopspring/decimal"

type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Image             string          `json:"image,omitempty"`
	Unit              string          `json:"unit,omitempty"`
	AvailableQuantity *int            `json:"availableQuantity,omitempty"`
	CategoryID        string          `json:"categoryId,omitempty"`
	IsActive          bool            `json:"isActive"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductQuery GET /catalog/products 的查詢條件
type ProductQuery struct {
	Search     string
	CategoryID string
	Page       int
	PageSize   int
}

// Params 轉成 query map，零值不送
func (q ProductQuery) Params() map[string]any {
	p := map[string]any{}
	if q.Search != "" {
		p["search"] = q.Search
	}
	if q.CategoryID != "" {
		p["categoryId"] = q.CategoryID
	}
	if q.Page > 0 {
		p["page"] = q.Page
	}
	if q.PageSize > 0 {
		p["pageSize"] = q.PageSize
	}
	return p
}

// ProductInput 後台新增或修改商品
type ProductInput struct {
	Name              string           `json:"name,omitempty"`
	Description       string           `json:"description,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Image             string           `json:"image,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	CategoryID        string           `json:"categoryId,omitempty"`
	AvailableQuantity *int             `json:"availableQuantity,omitempty"`
}
