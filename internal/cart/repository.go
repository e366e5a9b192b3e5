package cart

import (
	"context"
	"fmt"
	"net/url"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
)

// Repository 購物車的資料來源，登入走 Remote，未登入走 Local
type Repository interface {
	Load(ctx context.Context) (model.Cart, error)
	AddItem(ctx context.Context, product model.Product, qty int) error
	SetQuantity(ctx context.Context, productID string, qty int) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// LocalRepository 購物車快照存在 durable scope 的 cart key，內容為 json 陣列
type LocalRepository struct {
	store storage.Store
}

func NewLocalRepository(store storage.Store) *LocalRepository {
	if util.IsNil(store) {
		panic("local cart repository dependency store is nil")
	}
	return &LocalRepository{store: store}
}

var _ Repository = (*LocalRepository)(nil)

func (r *LocalRepository) Load(ctx context.Context) (model.Cart, error) {
	items, err := r.items(ctx)
	if err != nil {
		return model.Cart{}, err
	}
	return model.Cart{Items: items}, nil
}

func (r *LocalRepository) items(ctx context.Context) ([]model.CartItem, error) {
	var items []model.CartItem
	if _, err := storage.GetJSON(ctx, r.store, constants.CartSnapshotKey, &items); err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	// 壞掉的快照不要讓 quantity < 1 的項目進來
	valid := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.ID != "" && it.Quantity >= 1 {
			valid = append(valid, it)
		}
	}
	return valid, nil
}

// Save 整份覆寫，nil 會存成空陣列
func (r *LocalRepository) Save(ctx context.Context, items []model.CartItem) error {
	if items == nil {
		items = []model.CartItem{}
	}
	if err := storage.SetJSON(ctx, r.store, constants.CartSnapshotKey, items); err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

func (r *LocalRepository) AddItem(ctx context.Context, product model.Product, qty int) error {
	items, err := r.items(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range items {
		if items[i].ID == product.ID {
			items[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		items = append(items, model.ItemFromProduct(product, qty))
	}
	return r.Save(ctx, items)
}

func (r *LocalRepository) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return r.RemoveItem(ctx, productID)
	}
	items, err := r.items(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == productID {
			items[i].Quantity = qty
		}
	}
	return r.Save(ctx, items)
}

func (r *LocalRepository) RemoveItem(ctx context.Context, productID string) error {
	items, err := r.items(ctx)
	if err != nil {
		return err
	}
	out := items[:0]
	for _, it := range items {
		if it.ID != productID {
			out = append(out, it)
		}
	}
	return r.Save(ctx, out)
}

func (r *LocalRepository) Clear(ctx context.Context) error {
	return r.Save(ctx, nil)
}

// RemoteRepository 後端 /cart 資源
type RemoteRepository struct {
	api client.API
}

func NewRemoteRepository(api client.API) *RemoteRepository {
	if util.IsNil(api) {
		panic("remote cart repository dependency api is nil")
	}
	return &RemoteRepository{api: api}
}

var _ Repository = (*RemoteRepository)(nil)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func itemPath(productID string) string {
	return "/cart/items/" + url.PathEscape(productID)
}

func (r *RemoteRepository) Load(ctx context.Context) (model.Cart, error) {
	var rc model.RemoteCart
	if err := r.api.Get(ctx, "/cart", &rc); err != nil {
		return model.Cart{}, err
	}
	return rc.ToCart(), nil
}

func (r *RemoteRepository) AddItem(ctx context.Context, product model.Product, qty int) error {
	return r.api.Post(ctx, "/cart/items", addItemRequest{ProductID: product.ID, Quantity: qty}, nil)
}

func (r *RemoteRepository) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return r.RemoveItem(ctx, productID)
	}
	return r.api.Patch(ctx, itemPath(productID), setQuantityRequest{Quantity: qty}, nil)
}

func (r *RemoteRepository) RemoveItem(ctx context.Context, productID string) error {
	return r.api.Delete(ctx, itemPath(productID), nil)
}

func (r *RemoteRepository) Clear(ctx context.Context) error {
	return r.api.Delete(ctx, "/cart", nil)
}
