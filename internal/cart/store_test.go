package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/activity"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeAuth struct{ authed bool }

func (f *fakeAuth) IsAuthenticated(context.Context) bool { return f.authed }
func (f *fakeAuth) Subject(context.Context) string {
	if f.authed {
		return "u1"
	}
	return ""
}

// fakeRemote 模擬後端購物車，記錄呼叫順序
type fakeRemote struct {
	mu    sync.Mutex
	items []model.CartItem
	calls []string
	err   error
}

func (f *fakeRemote) record(c string) error {
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeRemote) Load(context.Context) (model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("load"); err != nil {
		return model.Cart{}, err
	}
	out := make([]model.CartItem, len(f.items))
	copy(out, f.items)
	return model.Cart{ID: "cart-1", Items: out}, nil
}

func (f *fakeRemote) AddItem(_ context.Context, p model.Product, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("add"); err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].ID == p.ID {
			f.items[i].Quantity += qty
			return nil
		}
	}
	f.items = append(f.items, model.ItemFromProduct(p, qty))
	return nil
}

func (f *fakeRemote) SetQuantity(_ context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("set"); err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Quantity = qty
		}
	}
	return nil
}

func (f *fakeRemote) RemoveItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("remove"); err != nil {
		return err
	}
	out := f.items[:0]
	for _, it := range f.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	f.items = out
	return nil
}

func (f *fakeRemote) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("clear"); err != nil {
		return err
	}
	f.items = nil
	return nil
}

func intPtr(v int) *int { return &v }

func product(id string, price string, avail *int) model.Product {
	return model.Product{ID: id, Name: "product " + id, Price: decimal.RequireFromString(price), AvailableQuantity: avail}
}

type StoreTestSuite struct {
	suite.Suite
	ctx     context.Context
	auth    *fakeAuth
	remote  *fakeRemote
	durable *storage.MemoryStore
	events  *activity.Recorder
	opened  []model.CartItem
	store   *Store
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.auth = &fakeAuth{authed: true}
	s.remote = &fakeRemote{}
	s.durable = storage.NewMemoryStore()
	s.events = activity.NewRecorder(64)
	s.opened = nil
	s.store = NewStore(s.auth, NewLocalRepository(s.durable), s.remote,
		WithPublisher(s.events),
		WithDrawer(DrawerFunc(func(it model.CartItem) { s.opened = append(s.opened, it) })))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) hasSnapshot() bool {
	_, ok, err := s.durable.Get(s.ctx, constants.CartSnapshotKey)
	s.Require().NoError(err)
	return ok
}

func (s *StoreTestSuite) snapshot() []model.CartItem {
	var items []model.CartItem
	ok, err := storage.GetJSON(s.ctx, s.durable, constants.CartSnapshotKey, &items)
	s.Require().NoError(err)
	s.Require().True(ok)
	return items
}

func (s *StoreTestSuite) TestAddItemAuthenticatedMutatesThenReloads() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "2.50", nil), 2))

	s.Require().Equal([]string{"add", "load"}, s.remote.calls)
	s.Require().Equal("cart-1", s.store.CartID())
	s.Require().Equal(2, s.store.Count())
	s.Require().True(decimal.RequireFromString("5").Equal(s.store.Total()))

	s.Require().Len(s.opened, 1)
	s.Require().Equal("p1", s.opened[0].ID)

	evts := s.events.Drain()
	s.Require().Len(evts, 1)
	s.Require().Equal(activity.CartItemAdded, evts[0].Type)
	s.Require().Equal("u1", evts[0].Subject)
	s.Require().Equal("cart-1", evts[0].CartID)

	// 遠端購物車不寫入未登入快照
	s.Require().False(s.hasSnapshot())
}

func (s *StoreTestSuite) TestAddItemUnauthenticatedRequiresLogin() {
	s.auth.authed = false
	err := s.store.AddItem(s.ctx, product("p1", "1", nil), 1)
	s.Require().True(apperror.IsCode(err, apperror.LoginRequiredCode))
	s.Require().Equal(apperror.FallbackMessage(apperror.LoginRequiredCode), apperror.UserMessage(err))
	s.Require().Empty(s.remote.calls)
	s.Require().Empty(s.store.Items())
	s.Require().Empty(s.opened)
}

func (s *StoreTestSuite) TestOutOfStockNeverChangesCart() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", nil), 1))
	before := s.store.Items()
	calls := len(s.remote.calls)

	err := s.store.AddItem(s.ctx, product("p2", "3", intPtr(0)), 1)
	s.Require().True(apperror.IsCode(err, apperror.OutOfStockCode))
	s.Require().Equal(apperror.FallbackMessage(apperror.OutOfStockCode), apperror.UserMessage(err))
	s.Require().Equal(before, s.store.Items())
	s.Require().Len(s.remote.calls, calls)

	// 庫存檢查先於登入檢查
	s.auth.authed = false
	err = s.store.AddItem(s.ctx, product("p2", "3", intPtr(0)), 1)
	s.Require().True(apperror.IsCode(err, apperror.OutOfStockCode))
}

func (s *StoreTestSuite) TestStockLimit() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", intPtr(3)), 2))
	err := s.store.AddItem(s.ctx, product("p1", "1", intPtr(3)), 2)
	s.Require().True(apperror.IsCode(err, apperror.StockLimitCode))
	s.Require().Equal("Only 3 left in stock.", apperror.UserMessage(err))
	s.Require().Equal(2, s.store.Count())

	err = s.store.UpdateQuantity(s.ctx, "p1", 4)
	s.Require().True(apperror.IsCode(err, apperror.StockLimitCode))
	s.Require().NoError(s.store.UpdateQuantity(s.ctx, "p1", 3))
	s.Require().Equal(3, s.store.Count())
}

func (s *StoreTestSuite) TestUpdateQuantityBelowOneRemoves() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", nil), 1))
	s.Require().NoError(s.store.AddItem(s.ctx, product("p2", "2", nil), 1))
	s.events.Drain()

	s.Require().NoError(s.store.UpdateQuantity(s.ctx, "p1", 0))
	viaUpdate := s.store.Items()
	s.Require().Equal(activity.CartItemRemoved, s.events.Drain()[0].Type)

	s.SetupTest()
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", nil), 1))
	s.Require().NoError(s.store.AddItem(s.ctx, product("p2", "2", nil), 1))
	s.Require().NoError(s.store.RemoveItem(s.ctx, "p1"))

	s.Require().Equal(s.store.Items(), viaUpdate)
	s.Require().Equal([]string{"add", "load", "add", "load", "remove", "load"}, s.remote.calls)
}

func (s *StoreTestSuite) TestTotalMatchesLinesAfterRandomSequence() {
	rng := rand.New(rand.NewSource(7))
	prices := map[string]string{"a": "1.10", "b": "2.25", "c": "0.99", "d": "10"}
	ids := []string{"a", "b", "c", "d"}

	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(3) {
		case 0:
			s.Require().NoError(s.store.AddItem(s.ctx, product(id, prices[id], nil), 1+rng.Intn(3)))
		case 1:
			s.Require().NoError(s.store.UpdateQuantity(s.ctx, id, rng.Intn(5)))
		case 2:
			s.Require().NoError(s.store.RemoveItem(s.ctx, id))
		}

		want := decimal.Zero
		for _, it := range s.store.Items() {
			s.Require().GreaterOrEqual(it.Quantity, 1)
			want = want.Add(decimal.RequireFromString(prices[it.ID]).Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		s.Require().True(want.Equal(s.store.Total()), "step %d", i)
	}
}

func (s *StoreTestSuite) TestUnauthenticatedUpdateThenRemove() {
	s.auth.authed = false
	s.Require().NoError(NewLocalRepository(s.durable).Save(s.ctx, []model.CartItem{
		{ID: "p1", Name: "milk", Price: decimal.NewFromInt(5), Quantity: 1},
	}))
	s.Require().NoError(s.store.Hydrate(s.ctx))
	s.Require().True(decimal.NewFromInt(5).Equal(s.store.Total()))

	s.Require().NoError(s.store.UpdateQuantity(s.ctx, "p1", 3))
	s.Require().True(decimal.NewFromInt(15).Equal(s.store.Total()))

	s.Require().NoError(s.store.RemoveItem(s.ctx, "p1"))
	s.Require().True(decimal.Zero.Equal(s.store.Total()))

	raw, ok, err := s.durable.Get(s.ctx, constants.CartSnapshotKey)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("[]", raw)
	s.Require().Empty(s.remote.calls)
}

func (s *StoreTestSuite) TestHydrateFromSnapshotWithoutNetwork() {
	s.auth.authed = false
	s.Require().NoError(NewLocalRepository(s.durable).Save(s.ctx, []model.CartItem{
		{ID: "p1", Name: "eggs", Price: decimal.NewFromInt(2), Quantity: 4},
	}))

	s.Require().NoError(s.store.Hydrate(s.ctx))
	s.Require().True(decimal.NewFromInt(8).Equal(s.store.Total()))
	s.Require().Empty(s.remote.calls)
}

func (s *StoreTestSuite) TestClearCart() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", nil), 3))
	s.Require().NoError(s.store.ClearCart(s.ctx))
	s.Require().Empty(s.store.Items())
	s.Require().False(s.hasSnapshot())
	s.Require().Equal(activity.CartCleared, s.events.Drain()[1].Type)

	s.auth.authed = false
	s.Require().NoError(NewLocalRepository(s.durable).Save(s.ctx, []model.CartItem{
		{ID: "p1", Name: "milk", Price: decimal.NewFromInt(1), Quantity: 2},
	}))
	s.Require().NoError(s.store.ClearCart(s.ctx))
	s.Require().Empty(s.snapshot())
}

func (s *StoreTestSuite) TestAuthenticatedCartDoesNotLeakToGuest() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "5", nil), 3))
	s.Require().True(decimal.NewFromInt(15).Equal(s.store.Total()))

	// 登出後重新啟動，未登入只能看到自己的快照
	s.auth.authed = false
	guest := NewStore(s.auth, NewLocalRepository(s.durable), s.remote)
	s.Require().NoError(guest.Hydrate(s.ctx))
	s.Require().Empty(guest.Items())
	s.Require().True(decimal.Zero.Equal(guest.Total()))

	s.Require().NoError(s.store.Hydrate(s.ctx))
	s.Require().Empty(s.store.Items())
}

func (s *StoreTestSuite) TestAddItemRejectsNonPositiveQuantity() {
	for _, qty := range []int{0, -5} {
		err := s.store.AddItem(s.ctx, product("p1", "1", nil), qty)
		s.Require().True(apperror.IsCode(err, apperror.ValidationErrorCode), "qty %d", qty)
	}
	s.Require().Empty(s.remote.calls)
	s.Require().Empty(s.store.Items())
	s.Require().Empty(s.opened)
	s.Require().Empty(s.events.Drain())
}

// blockingPublisher 第一個事件會卡住直到 release 關閉
type blockingPublisher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPublisher) Publish(context.Context, activity.Event) {
	if b.calls.Add(1) == 1 {
		close(b.entered)
		<-b.release
	}
}

func (s *StoreTestSuite) TestSlowPublisherDoesNotBlockMutations() {
	pub := &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(s.auth, NewLocalRepository(s.durable), s.remote, WithPublisher(pub))

	added := make(chan error, 1)
	go func() { added <- store.AddItem(s.ctx, product("p1", "1", nil), 1) }()
	<-pub.entered

	updated := make(chan error, 1)
	go func() { updated <- store.UpdateQuantity(s.ctx, "p1", 2) }()
	select {
	case err := <-updated:
		s.Require().NoError(err)
	case <-time.After(2 * time.Second):
		s.Require().FailNow("mutation blocked behind a pending publish")
	}
	s.Require().Equal(2, store.Count())

	close(pub.release)
	s.Require().NoError(<-added)
	s.Require().EqualValues(2, pub.calls.Load())
}

func (s *StoreTestSuite) TestNewStoreRejectsTypedNilDependency() {
	var remote *fakeRemote
	s.Require().Panics(func() { NewStore(s.auth, NewLocalRepository(s.durable), remote) })
	var auth *fakeAuth
	s.Require().Panics(func() { NewStore(auth, NewLocalRepository(s.durable), s.remote) })
}

func (s *StoreTestSuite) TestDiscardLocal() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", nil), 3))
	calls := len(s.remote.calls)
	s.Require().NoError(s.store.DiscardLocal(s.ctx))
	s.Require().Empty(s.store.Items())
	s.Require().Empty(s.store.CartID())
	s.Require().Empty(s.snapshot())
	s.Require().Len(s.remote.calls, calls)
}

func (s *StoreTestSuite) TestRemoteFailureKeepsState() {
	s.Require().NoError(s.store.AddItem(s.ctx, product("p1", "1", nil), 1))
	before := s.store.Items()
	s.remote.err = apperror.New(apperror.InsufficientStockCode, "")

	err := s.store.UpdateQuantity(s.ctx, "p1", 2)
	s.Require().True(errors.Is(err, apperror.New(apperror.InsufficientStockCode, "")))
	s.Require().Equal(before, s.store.Items())
}

func TestLocalRepositoryIgnoresInvalidLines(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(ctx, constants.CartSnapshotKey, `[{"id":"p1","price":1,"quantity":0},{"id":"p2","price":"2","quantity":2}]`))
	c, err := NewLocalRepository(st).Load(ctx)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, "p2", c.Items[0].ID)
}

func TestLocalRepositoryAddMerges(t *testing.T) {
	ctx := context.Background()
	repo := NewLocalRepository(storage.NewMemoryStore())
	require.NoError(t, repo.AddItem(ctx, product("p1", "1", nil), 1))
	require.NoError(t, repo.AddItem(ctx, product("p1", "1", nil), 2))
	require.NoError(t, repo.SetQuantity(ctx, "missing", 3))
	c, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, 3, c.Items[0].Quantity)
	require.Empty(t, c.ID)
}
