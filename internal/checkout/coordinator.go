package checkout

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/activity"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/navigation"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

/*
Coordinator FULFILLMENT -> SCHEDULE -> PAYMENT 的線性流程

mu 只保護 state，網路呼叫期間不持有
slot / preview / cart id 三種查詢各有 generation，回來時不是最新的就丟掉
*/
type Coordinator struct {
	mu    sync.Mutex
	state State

	cartGen    atomic.Uint64
	slotGen    atomic.Uint64
	previewGen atomic.Uint64

	// 這次進入結帳頁產生的 key，成功後才換
	idemKey string

	api          API
	cart         Cart
	sessionScope storage.Store
	durableScope storage.Store
	nav          navigation.Navigator
	publisher    activity.Publisher
	subject      func(ctx context.Context) string
	logger       *zerolog.Logger
	now          func() time.Time
}

type Option func(*Coordinator)

func WithNavigator(n navigation.Navigator) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.nav = n
		}
	}
}

func WithPublisher(p activity.Publisher) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithSubject activity event 的 key 來源
func WithSubject(f func(ctx context.Context) string) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.subject = f
		}
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCoordinator(api API, cart Cart, sessionScope, durableScope storage.Store, opts ...Option) *Coordinator {
	if util.IsNil(api) || util.IsNil(cart) || util.IsNil(sessionScope) || util.IsNil(durableScope) {
		panic("checkout coordinator dependency is nil")
	}
	l := zerolog.Nop()
	c := &Coordinator{
		state:        State{Step: StepFulfillment, Method: model.Delivery},
		api:          api,
		cart:         cart,
		sessionScope: sessionScope,
		durableScope: durableScope,
		nav:          navigation.Nop{},
		publisher:    activity.NopPublisher{},
		subject:      func(context.Context) string { return "" },
		logger:       &l,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.idemKey = NewIdempotencyKey(c.now())
	return c
}

// NewIdempotencyKey 時間戳 + 隨機後綴
func NewIdempotencyKey(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// State 回傳複本
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetAuthenticated 登入後取得後端購物車 id，登出則清掉 id 與試算
func (c *Coordinator) SetAuthenticated(ctx context.Context, authenticated bool) error {
	gen := c.cartGen.Add(1)
	if !authenticated {
		c.previewGen.Add(1)
		c.mu.Lock()
		c.state.ServerCartID = ""
		c.state.Preview = nil
		c.mu.Unlock()
		return nil
	}

	id, err := c.api.CartID(ctx)
	if c.cartGen.Load() != gen {
		return nil
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.cartGen.Load() != gen {
		c.mu.Unlock()
		return nil
	}
	c.state.ServerCartID = id
	c.mu.Unlock()
	return c.refreshPreview(ctx)
}

// SelectMethod 先同步清掉 slotId，再查時段與試算
func (c *Coordinator) SelectMethod(ctx context.Context, method model.FulfillmentMethod) error {
	if method != model.Delivery && method != model.Pickup {
		return apperror.Newf(apperror.ValidationErrorCode, "unknown fulfillment method %q", method)
	}
	c.mu.Lock()
	c.state.Method = method
	c.state.SlotID = ""
	c.mu.Unlock()
	return c.refreshAfterChange(ctx)
}

func (c *Coordinator) SelectBranch(ctx context.Context, branchID string) error {
	c.mu.Lock()
	c.state.BranchID = branchID
	c.state.SlotID = ""
	c.mu.Unlock()
	return c.refreshAfterChange(ctx)
}

// SelectSlot slot 必須在目前的選項內
func (c *Coordinator) SelectSlot(ctx context.Context, slotID string) error {
	c.mu.Lock()
	offered := slices.ContainsFunc(c.state.SlotOptions, func(o model.SlotOption) bool { return o.ID == slotID })
	if !offered {
		c.mu.Unlock()
		return apperror.New(apperror.InvalidSlotCode, "")
	}
	c.state.SlotID = slotID
	c.mu.Unlock()
	return c.refreshPreview(ctx)
}

// 外送且有分店時查時段，自取時清掉時段；試算同時進行
func (c *Coordinator) refreshAfterChange(ctx context.Context) error {
	c.mu.Lock()
	method, branch := c.state.Method, c.state.BranchID
	if method != model.Delivery || branch == "" {
		c.slotGen.Add(1)
		c.state.SlotOptions = nil
	}
	c.mu.Unlock()

	// 其中一個失敗不取消另一個
	var g errgroup.Group
	if method == model.Delivery && branch != "" {
		g.Go(func() error {
			return c.loadSlots(ctx, branch)
		})
	}
	g.Go(func() error {
		return c.refreshPreview(ctx)
	})
	return g.Wait()
}

func (c *Coordinator) loadSlots(ctx context.Context, branchID string) error {
	gen := c.slotGen.Add(1)
	slots, err := c.api.ListDeliverySlots(ctx, branchID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slotGen.Load() != gen {
		return nil
	}
	if err != nil {
		c.state.SlotOptions = nil
		return err
	}
	c.state.SlotOptions = BuildSlotOptions(slots)
	return nil
}

// refreshPreview 沒有購物車 id，或自取沒有分店時，不試算並清空 preview
func (c *Coordinator) refreshPreview(ctx context.Context) error {
	gen := c.previewGen.Add(1)

	c.mu.Lock()
	req, ready := c.previewRequestLocked()
	if !ready {
		c.state.Preview = nil
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	p, err := c.api.Preview(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.previewGen.Load() != gen {
		return nil
	}
	if err != nil {
		c.state.Preview = nil
		return err
	}
	c.state.Preview = p
	return nil
}

func (c *Coordinator) previewRequestLocked() (model.PreviewRequest, bool) {
	s := c.state
	if s.ServerCartID == "" {
		return model.PreviewRequest{}, false
	}
	if s.Method == model.Pickup && s.BranchID == "" {
		return model.PreviewRequest{}, false
	}
	req := model.PreviewRequest{CartID: s.ServerCartID, FulfillmentType: s.Method}
	if s.Method == model.Pickup {
		req.BranchID = s.BranchID
	} else {
		req.DeliverySlotID = s.SlotID
	}
	return req, true
}

// Next 自取必須先選分店
func (c *Coordinator) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Step {
	case StepFulfillment:
		if c.state.Method == model.Pickup && c.state.BranchID == "" {
			return apperror.New(apperror.InvalidStepCode, "Please choose a pickup branch.")
		}
		c.state.Step = StepSchedule
	case StepSchedule:
		c.state.Step = StepPayment
	default:
		return apperror.New(apperror.InvalidStepCode, "")
	}
	return nil
}

// Back 回到上一步，不重新查詢
func (c *Coordinator) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step > StepFulfillment {
		c.state.Step--
	}
	c.state.Error = ""
}

// PlaceOrder 先 token 化卡片再送出
func (c *Coordinator) PlaceOrder(ctx context.Context, tokenizer PaymentTokenizer, card model.Card) (*model.OrderSuccessSnapshot, error) {
	c.mu.Lock()
	err := c.confirmGuardLocked()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.CreateToken(ctx, card)
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}
	return c.Confirm(ctx, tok.ID)
}

func (c *Coordinator) confirmGuardLocked() error {
	if c.state.Step != StepPayment {
		return apperror.New(apperror.InvalidStepCode, "")
	}
	if c.state.ServerCartID == "" {
		return apperror.New(apperror.CartNotReadyCode, "")
	}
	if c.state.Submitting {
		return apperror.New(apperror.ConflictCode, "Your order is already being submitted.")
	}
	return nil
}

/*
Confirm 送出訂單
失敗: 停在 PAYMENT，Error 顯示訊息，購物車不動，可直接重試
成功: 建立快照 -> 清空本地購物車 -> 保存快照 -> 導到成功頁 -> 換新的 idempotency key
*/
func (c *Coordinator) Confirm(ctx context.Context, paymentTokenID string) (*model.OrderSuccessSnapshot, error) {
	c.mu.Lock()
	if err := c.confirmGuardLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state.Submitting = true
	c.state.Error = ""
	s := c.state.clone()
	c.mu.Unlock()

	req := model.ConfirmRequest{
		CartID:          s.ServerCartID,
		PaymentTokenID:  paymentTokenID,
		FulfillmentType: s.Method,
		DeliverySlotID:  s.SlotID,
	}
	if s.Method == model.Pickup {
		req.BranchID = s.BranchID
	}

	key, err := c.idempotencyKey(ctx, s.ServerCartID)
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}

	result, err := c.api.Confirm(ctx, req, key)
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}

	snap := BuildSnapshot(s, c.cart.Items(), result, c.now())
	if err := c.cart.DiscardLocal(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to clear local cart after checkout")
	}
	if err := storage.SetJSON(ctx, c.durableScope, constants.OrderSuccessKeyPrefix+snap.OrderID, snap); err != nil {
		c.logger.Warn().Err(err).Str("order_id", snap.OrderID).Msg("failed to persist order success snapshot")
	}
	c.nav.Navigate(constants.RouteOrderSuccess+"/"+snap.OrderID, snap)
	c.rotateIdempotencyKey(ctx, s.ServerCartID)

	c.mu.Lock()
	c.state.Submitting = false
	c.mu.Unlock()

	c.publisher.Publish(ctx, activity.Event{
		Type:    activity.CheckoutConfirmed,
		Subject: c.subject(ctx),
		CartID:  s.ServerCartID,
		OrderID: snap.OrderID,
	})
	return snap, nil
}

func (c *Coordinator) fail(ctx context.Context, err error) {
	c.mu.Lock()
	c.state.Submitting = false
	c.state.Error = apperror.UserMessage(err)
	cartID := c.state.ServerCartID
	c.mu.Unlock()

	c.logger.Info().Err(err).Str("cart_id", cartID).Msg("checkout confirm failed")
	c.publisher.Publish(ctx, activity.Event{
		Type:    activity.CheckoutFailed,
		Subject: c.subject(ctx),
		CartID:  cartID,
		Code:    string(apperror.CodeOf(err)),
	})
}

// idempotencyKey 同一個購物車在成功前重送或重新整理都用同一把 key
func (c *Coordinator) idempotencyKey(ctx context.Context, cartID string) (string, error) {
	storeKey := constants.IdempotencyKeyKeyPrefix + cartID
	if k, ok, err := c.sessionScope.Get(ctx, storeKey); err != nil {
		return "", apperror.Wrap(apperror.InternalErrorCode, err)
	} else if ok && k != "" {
		return k, nil
	}

	c.mu.Lock()
	key := c.idemKey
	c.mu.Unlock()
	if err := c.sessionScope.Set(ctx, storeKey, key); err != nil {
		return "", apperror.Wrap(apperror.InternalErrorCode, err)
	}
	return key, nil
}

func (c *Coordinator) rotateIdempotencyKey(ctx context.Context, cartID string) {
	if err := c.sessionScope.Delete(ctx, constants.IdempotencyKeyKeyPrefix+cartID); err != nil {
		c.logger.Warn().Err(err).Msg("failed to drop used idempotency key")
	}
	c.mu.Lock()
	c.idemKey = NewIdempotencyKey(c.now())
	c.mu.Unlock()
}

// IdempotencyKey 目前這次結帳會使用的 key
func (c *Coordinator) IdempotencyKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idemKey
}
