package cart

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/freshmarket/internal/activity"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Authenticator 由 session 實作
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
	Subject(ctx context.Context) string
}

// Drawer 加入購物車成功後打開側邊購物車
type Drawer interface {
	Open(item model.CartItem)
}

type DrawerFunc func(item model.CartItem)

func (f DrawerFunc) Open(item model.CartItem) { f(item) }

type nopDrawer struct{}

func (nopDrawer) Open(model.CartItem) {}

/*
Store 購物車狀態
  - 每次異動都呼叫 repository 後重新 Load，不信任任何本地中間狀態
  - mu 從異動到重新載入期間一直持有，異動彼此序列化
  - 讀取只拿 stateMu，不會被網路呼叫卡住
  - 快照只屬於未登入的 LocalRepository，遠端購物車不寫入快照
  - 事件在釋放 mu 之後才送出
*/
type Store struct {
	mu      sync.Mutex
	stateMu sync.RWMutex
	cartID  string
	items   []model.CartItem

	auth      Authenticator
	local     *LocalRepository
	remote    Repository
	drawer    Drawer
	publisher activity.Publisher
	logger    *zerolog.Logger
}

type Option func(*Store)

func WithDrawer(d Drawer) Option {
	return func(s *Store) {
		if d != nil {
			s.drawer = d
		}
	}
}

func WithPublisher(p activity.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(auth Authenticator, local *LocalRepository, remote Repository, opts ...Option) *Store {
	if util.IsNil(auth) || util.IsNil(local) || util.IsNil(remote) {
		panic("cart store dependency is nil")
	}
	l := zerolog.Nop()
	s := &Store{
		auth:      auth,
		local:     local,
		remote:    remote,
		drawer:    nopDrawer{},
		publisher: activity.NopPublisher{},
		logger:    &l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) repository(ctx context.Context) (Repository, bool) {
	if s.auth.IsAuthenticated(ctx) {
		return s.remote, true
	}
	return s.local, false
}

// Hydrate 未登入時只讀本地快照，不會打網路
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	repo, authed := s.repository(ctx)
	return s.reload(ctx, repo, authed)
}

func (s *Store) reload(ctx context.Context, repo Repository, authed bool) error {
	c, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	s.stateMu.Lock()
	s.cartID = c.ID
	s.items = c.Items
	s.stateMu.Unlock()

	if authed {
		return nil
	}
	if err := s.local.Save(ctx, c.Items); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist cart snapshot")
	}
	return nil
}

// mutate 持有 mu 執行 fn 並重新載入，成功後才在鎖外送出事件
func (s *Store) mutate(ctx context.Context, fn func(repo Repository, authed bool) (activity.Event, error)) error {
	s.mu.Lock()
	repo, authed := s.repository(ctx)
	evt, err := fn(repo, authed)
	if err == nil {
		err = s.reload(ctx, repo, authed)
	}
	evt.CartID = s.CartID()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

/*
AddItem 加入購物車
qty < 1 => VALIDATION_ERROR
庫存檢查在登入檢查之前:
  - availableQuantity == 0 => OUT_OF_STOCK
  - 已在車內數量 + qty > availableQuantity => STOCK_LIMIT
*/
func (s *Store) AddItem(ctx context.Context, product model.Product, qty int) error {
	if qty < 1 {
		return apperror.New(apperror.ValidationErrorCode, "Quantity must be at least 1.")
	}
	err := s.mutate(ctx, func(repo Repository, authed bool) (activity.Event, error) {
		if err := s.checkStock(product, qty); err != nil {
			return activity.Event{}, err
		}
		if !authed {
			return activity.Event{}, apperror.New(apperror.LoginRequiredCode, "")
		}
		return activity.Event{Type: activity.CartItemAdded, ProductID: product.ID, Quantity: qty},
			repo.AddItem(ctx, product, qty)
	})
	if err != nil {
		return err
	}

	item, ok := s.find(product.ID)
	if !ok {
		item = model.ItemFromProduct(product, qty)
	}
	s.drawer.Open(item)
	return nil
}

func (s *Store) checkStock(product model.Product, qty int) error {
	if product.AvailableQuantity == nil {
		return nil
	}
	avail := *product.AvailableQuantity
	if avail <= 0 {
		return apperror.New(apperror.OutOfStockCode, "")
	}
	existing := 0
	if it, ok := s.find(product.ID); ok {
		existing = it.Quantity
	}
	if existing+qty > avail {
		return stockLimit(avail)
	}
	return nil
}

func stockLimit(avail int) *apperror.Error {
	e := apperror.Newf(apperror.StockLimitCode, "Only %d left in stock.", avail)
	e.Details = map[string]any{"availableQuantity": avail}
	return e
}

func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(repo Repository, _ bool) (activity.Event, error) {
		return removeEvent(productID), repo.RemoveItem(ctx, productID)
	})
}

func removeEvent(productID string) activity.Event {
	return activity.Event{Type: activity.CartItemRemoved, ProductID: productID}
}

// UpdateQuantity qty < 1 等同 RemoveItem
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	return s.mutate(ctx, func(repo Repository, _ bool) (activity.Event, error) {
		if qty < 1 {
			return removeEvent(productID), repo.RemoveItem(ctx, productID)
		}
		if it, ok := s.find(productID); ok && it.AvailableQuantity != nil && qty > *it.AvailableQuantity {
			return activity.Event{}, stockLimit(*it.AvailableQuantity)
		}
		return activity.Event{Type: activity.CartQuantityUpdated, ProductID: productID, Quantity: qty},
			repo.SetQuantity(ctx, productID, qty)
	})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func(repo Repository, _ bool) (activity.Event, error) {
		return activity.Event{Type: activity.CartCleared}, repo.Clear(ctx)
	})
}

// DiscardLocal 下單成功後清空本地狀態與快照，後端購物車已由訂單消耗，不再呼叫網路
func (s *Store) DiscardLocal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateMu.Lock()
	s.items = nil
	s.cartID = ""
	s.stateMu.Unlock()
	return s.local.Clear(ctx)
}

func (s *Store) publish(ctx context.Context, evt activity.Event) {
	evt.Subject = s.auth.Subject(ctx)
	s.publisher.Publish(ctx, evt)
}

func (s *Store) find(productID string) (model.CartItem, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	for _, it := range s.items {
		if it.ID == productID {
			return it, true
		}
	}
	return model.CartItem{}, false
}

// Items 回傳複本
func (s *Store) Items() []model.CartItem {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) CartID() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cartID
}

// Total sum(price * quantity)
func (s *Store) Total() decimal.Decimal {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Count 商品件數總和
func (s *Store) Count() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}
