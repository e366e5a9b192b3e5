package model

import "github.com/shopspring/decimal"

// CartItem 以商品 id 為識別，quantity 永遠 >= 1
type CartItem struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Image             string          `json:"image,omitempty"`
	Quantity          int             `json:"quantity"`
	Unit              string          `json:"unit,omitempty"`
	AvailableQuantity *int            `json:"availableQuantity,omitempty"`
}

// LineTotal price * quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemFromProduct 第一次加入購物車時建立
func ItemFromProduct(p Product, qty int) CartItem {
	return CartItem{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		Image:             p.Image,
		Quantity:          qty,
		Unit:              p.Unit,
		AvailableQuantity: p.AvailableQuantity,
	}
}

// Cart id 為後端購物車 id，本地快照時為空
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}

// RemoteCartItem 後端 /cart 回傳的一行
type RemoteCartItem struct {
	ProductID         string          `json:"productId"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Image             string          `json:"image,omitempty"`
	Quantity          int             `json:"quantity"`
	Unit              string          `json:"unit,omitempty"`
	AvailableQuantity *int            `json:"availableQuantity,omitempty"`
}

type RemoteCart struct {
	ID    string           `json:"id"`
	Items []RemoteCartItem `json:"items"`
}

// ToCart 轉成前端使用的 Cart
func (r RemoteCart) ToCart() Cart {
	items := make([]CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, CartItem{
			ID:                it.ProductID,
			Name:              it.Name,
			Price:             it.Price,
			Image:             it.Image,
			Quantity:          it.Quantity,
			Unit:              it.Unit,
			AvailableQuantity: it.AvailableQuantity,
		})
	}
	return Cart{ID: r.ID, Items: items}
}
