package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 低於此庫存量算低庫存
const lowStockThreshold = 5

var (
	deliveryFee          = decimal.RequireFromString("4.99")
	freeDeliveryFrom     = decimal.NewFromInt(50)
	declinedCardNumber   = "4000000000000002"
	defaultBranchID      = "b1"
	statusPending        = "PENDING"
	statusCancelled      = "CANCELLED"
	orderStatusSequences = []string{"PENDING", "PICKING", "READY", "OUT_FOR_DELIVERY", "COMPLETED", "CANCELLED"}
)

type account struct {
	user      model.User
	password  string
	addresses []model.Address
}

type cartLine struct {
	productID string
	quantity  int
}

type userCart struct {
	id    string
	lines []cartLine
}

type paymentToken struct {
	token    model.PaymentToken
	declined bool
	used     bool
}

type order struct {
	order   model.Order
	userID  string
	picking []model.PickingItem
}

/*
state 假後端的所有資料
只做最單純的檢查：庫存、時段容量、付款token、idempotency key
*/
type state struct {
	mu sync.Mutex

	products   map[string]*model.Product
	categories []model.Category
	branches   []model.Branch
	slots      map[string]*model.DeliverySlot
	accounts   map[string]*account // key: email
	carts      map[string]*userCart
	tokens     map[string]*paymentToken
	orders     map[string]*order
	orderSeq   int
	idem       map[string]model.ConfirmResult // key: userID + idempotency key
	now        func() time.Time
}

func newState(now func() time.Time) *state {
	s := &state{
		products: map[string]*model.Product{},
		slots:    map[string]*model.DeliverySlot{},
		accounts: map[string]*account{},
		carts:    map[string]*userCart{},
		tokens:   map[string]*paymentToken{},
		orders:   map[string]*order{},
		idem:     map[string]model.ConfirmResult{},
		now:      now,
	}
	s.seed()
	return s
}

func intPtr(v int) *int { return &v }

func (s *state) seed() {
	s.categories = []model.Category{
		{ID: "c1", Name: "Dairy"},
		{ID: "c2", Name: "Bakery"},
		{ID: "c3", Name: "Produce"},
	}
	for _, p := range []model.Product{
		{ID: "p1", Name: "Whole Milk", Description: "1L fresh whole milk", Price: decimal.RequireFromString("2.49"), Unit: "bottle", AvailableQuantity: intPtr(20), CategoryID: "c1", IsActive: true},
		{ID: "p2", Name: "Sourdough Loaf", Description: "Baked this morning", Price: decimal.RequireFromString("4.50"), Unit: "loaf", AvailableQuantity: intPtr(5), CategoryID: "c2", IsActive: true},
		{ID: "p3", Name: "Honeycrisp Apples", Description: "Sold per kg", Price: decimal.RequireFromString("3.20"), Unit: "kg", AvailableQuantity: intPtr(0), CategoryID: "c3", IsActive: true},
		{ID: "p4", Name: "Free Range Eggs", Description: "Dozen", Price: decimal.RequireFromString("2.00"), Unit: "dozen", AvailableQuantity: intPtr(12), CategoryID: "c1", IsActive: true},
	} {
		p := p
		s.products[p.ID] = &p
	}

	s.branches = []model.Branch{
		{ID: "b1", Name: "Downtown", Address: "1 Market St", City: "Springfield", IsActive: true},
		{ID: "b2", Name: "Riverside", Address: "42 River Rd", City: "Springfield", IsActive: true},
	}

	day := s.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	for _, b := range s.branches {
		for i, hours := range [][2]int{{9, 11}, {13, 15}, {18, 20}} {
			id := fmt.Sprintf("%s-s%d", b.ID, i+1)
			s.slots[id] = &model.DeliverySlot{
				ID:                id,
				BranchID:          b.ID,
				StartsAt:          day.Add(time.Duration(hours[0]) * time.Hour),
				EndsAt:            day.Add(time.Duration(hours[1]) * time.Hour),
				RemainingCapacity: intPtr(3),
			}
		}
	}
	// 同一時段重複的資料，前端要去重
	dup := *s.slots["b1-s1"]
	dup.ID = "b1-s1b"
	s.slots[dup.ID] = &dup

	for _, a := range []struct {
		id, email, name string
		role            constants.Role
	}{
		{"u-customer", "customer@freshmarket.test", "Casey Customer", constants.RoleCustomer},
		{"u-employee", "staff@freshmarket.test", "Sam Staff", constants.RoleEmployee},
		{"u-admin", "admin@freshmarket.test", "Ada Admin", constants.RoleAdmin},
	} {
		s.accounts[a.email] = &account{
			user:     model.User{ID: a.id, Email: a.email, FullName: a.name, Role: string(a.role)},
			password: "password",
		}
	}
}

func notFound(what string) *apperror.Error {
	return apperror.Newf(apperror.NotFoundCode, "%s not found.", what)
}

func (s *state) accountByID(userID string) *account {
	for _, a := range s.accounts {
		if a.user.ID == userID {
			return a
		}
	}
	return nil
}

func (s *state) login(email, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok || a.password != password {
		return nil, apperror.FromResponse(401, string(apperror.UnauthorizedCode), "Invalid email or password.", nil)
	}
	u := a.user
	return &u, nil
}

func (s *state) register(req model.RegisterRequest) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 6 || req.FullName == "" {
		return nil, apperror.New(apperror.ValidationErrorCode, "Email, full name and a password of at least 6 characters are required.")
	}
	if _, ok := s.accounts[email]; ok {
		return nil, apperror.New(apperror.ConflictCode, "An account with this email already exists.")
	}
	a := &account{
		user:     model.User{ID: "u-" + uuid.NewString()[:8], Email: email, FullName: req.FullName, Phone: req.Phone, Role: string(constants.RoleCustomer)},
		password: req.Password,
	}
	s.accounts[email] = a
	u := a.user
	return &u, nil
}

func (s *state) me(userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByID(userID)
	if a == nil {
		return nil, notFound("User")
	}
	u := a.user
	return &u, nil
}

func (s *state) addresses(userID string) []model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByID(userID)
	if a == nil {
		return []model.Address{}
	}
	return append([]model.Address{}, a.addresses...)
}

func (s *state) addAddress(userID string, addr model.Address) (*model.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByID(userID)
	if a == nil {
		return nil, notFound("User")
	}
	if addr.Street == "" || addr.City == "" {
		return nil, apperror.New(apperror.ValidationErrorCode, "Street and city are required.")
	}
	addr.ID = "a-" + uuid.NewString()[:8]
	if len(a.addresses) == 0 {
		addr.IsDefault = true
	}
	if addr.IsDefault {
		for i := range a.addresses {
			a.addresses[i].IsDefault = false
		}
	}
	a.addresses = append(a.addresses, addr)
	return &addr, nil
}

// ---- catalog ----

func (s *state) listProducts(search, categoryID string) []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	search = strings.ToLower(search)
	out := []model.Product{}
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) product(id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, notFound("Product")
	}
	cp := *p
	return &cp, nil
}

func (s *state) listSlots(branchID string) ([]model.DeliverySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if branchID == "" {
		return nil, apperror.New(apperror.ValidationErrorCode, "branch_id is required.")
	}
	out := []model.DeliverySlot{}
	for _, sl := range s.slots {
		if sl.BranchID == branchID {
			out = append(out, *sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- cart ----

func (s *state) cartOf(userID string) *userCart {
	c, ok := s.carts[userID]
	if !ok {
		c = &userCart{id: "cart-" + uuid.NewString()[:8]}
		s.carts[userID] = c
	}
	return c
}

func (s *state) remoteCart(c *userCart) model.RemoteCart {
	rc := model.RemoteCart{ID: c.id, Items: []model.RemoteCartItem{}}
	for _, l := range c.lines {
		p := s.products[l.productID]
		if p == nil {
			continue
		}
		rc.Items = append(rc.Items, model.RemoteCartItem{
			ProductID:         p.ID,
			Name:              p.Name,
			Price:             p.Price,
			Image:             p.Image,
			Quantity:          l.quantity,
			Unit:              p.Unit,
			AvailableQuantity: p.AvailableQuantity,
		})
	}
	return rc
}

func (s *state) getCart(userID string) model.RemoteCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteCart(s.cartOf(userID))
}

func (s *state) addToCart(userID, productID string, qty int) (model.RemoteCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty < 1 {
		return model.RemoteCart{}, apperror.New(apperror.ValidationErrorCode, "Quantity must be at least 1.")
	}
	p, ok := s.products[productID]
	if !ok || !p.IsActive {
		return model.RemoteCart{}, notFound("Product")
	}
	c := s.cartOf(userID)
	for i := range c.lines {
		if c.lines[i].productID == productID {
			c.lines[i].quantity += qty
			return s.remoteCart(c), nil
		}
	}
	c.lines = append(c.lines, cartLine{productID: productID, quantity: qty})
	return s.remoteCart(c), nil
}

func (s *state) setCartQuantity(userID, productID string, qty int) (model.RemoteCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartOf(userID)
	for i := range c.lines {
		if c.lines[i].productID != productID {
			continue
		}
		if qty < 1 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].quantity = qty
		}
		return s.remoteCart(c), nil
	}
	return model.RemoteCart{}, notFound("Cart item")
}

func (s *state) removeFromCart(userID, productID string) model.RemoteCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartOf(userID)
	out := c.lines[:0]
	for _, l := range c.lines {
		if l.productID != productID {
			out = append(out, l)
		}
	}
	c.lines = out
	return s.remoteCart(c)
}

func (s *state) clearCart(userID string) model.RemoteCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartOf(userID)
	c.lines = nil
	return s.remoteCart(c)
}

// ---- checkout ----

func (s *state) validateCheckout(userID, cartID string, method model.FulfillmentMethod, branchID, slotID string) (*userCart, *model.DeliverySlot, error) {
	c := s.cartOf(userID)
	if cartID != c.id {
		return nil, nil, apperror.New(apperror.ValidationErrorCode, "Cart has changed, please reload.")
	}
	switch method {
	case model.Pickup:
		if branchID == "" {
			return nil, nil, apperror.New(apperror.ValidationErrorCode, "A pickup branch is required.")
		}
		if !s.branchExists(branchID) {
			return nil, nil, notFound("Branch")
		}
	case model.Delivery:
	default:
		return nil, nil, apperror.New(apperror.ValidationErrorCode, "Unknown fulfillment type.")
	}
	var sl *model.DeliverySlot
	if slotID != "" {
		var ok bool
		sl, ok = s.slots[slotID]
		if !ok || (sl.RemainingCapacity != nil && *sl.RemainingCapacity <= 0) {
			return nil, nil, apperror.New(apperror.InvalidSlotCode, "")
		}
	}
	return c, sl, nil
}

func (s *state) branchExists(id string) bool {
	for _, b := range s.branches {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (s *state) price(c *userCart, method model.FulfillmentMethod) model.CheckoutPreview {
	p := model.CheckoutPreview{Subtotal: decimal.Zero, DeliveryFee: decimal.Zero, Discount: decimal.Zero, Currency: "USD"}
	for _, l := range c.lines {
		prod := s.products[l.productID]
		if prod == nil {
			continue
		}
		p.Subtotal = p.Subtotal.Add(prod.Price.Mul(decimal.NewFromInt(int64(l.quantity))))
		if prod.AvailableQuantity != nil && l.quantity > *prod.AvailableQuantity {
			p.MissingItems = append(p.MissingItems, model.MissingItem{
				ProductID:         prod.ID,
				RequestedQuantity: l.quantity,
				AvailableQuantity: *prod.AvailableQuantity,
			})
		}
	}
	if method == model.Delivery && p.Subtotal.LessThan(freeDeliveryFrom) {
		p.DeliveryFee = deliveryFee
	}
	p.Total = p.Subtotal.Add(p.DeliveryFee).Sub(p.Discount)
	return p
}

func (s *state) preview(userID string, req model.PreviewRequest) (*model.CheckoutPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _, err := s.validateCheckout(userID, req.CartID, req.FulfillmentType, req.BranchID, req.DeliverySlotID)
	if err != nil {
		return nil, err
	}
	p := s.price(c, req.FulfillmentType)
	return &p, nil
}

func (s *state) createPaymentToken(card model.Card) (*model.PaymentToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	number := strings.ReplaceAll(card.Number, " ", "")
	if len(number) < 12 || card.Expiry == "" || len(card.CVV) < 3 {
		return nil, apperror.New(apperror.ValidationErrorCode, "Card details are incomplete.")
	}
	t := &paymentToken{
		token:    model.PaymentToken{ID: "tok_" + uuid.NewString()[:12], Last4: number[len(number)-4:], Brand: "VISA"},
		declined: number == declinedCardNumber,
	}
	s.tokens[t.token.ID] = t
	out := t.token
	return &out, nil
}

/*
confirm 同一使用者同一把 idempotency key 回傳同一張訂單
成功後扣庫存、扣時段容量、換新的購物車 id
*/
func (s *state) confirm(userID, key string, req model.ConfirmRequest) (*model.ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		if res, ok := s.idem[userID+"|"+key]; ok {
			return &res, nil
		}
	}
	c, sl, err := s.validateCheckout(userID, req.CartID, req.FulfillmentType, req.BranchID, req.DeliverySlotID)
	if err != nil {
		return nil, err
	}
	if len(c.lines) == 0 {
		return nil, apperror.New(apperror.ValidationErrorCode, "Your cart is empty.")
	}
	pricing := s.price(c, req.FulfillmentType)
	if len(pricing.MissingItems) > 0 {
		m := pricing.MissingItems[0]
		e := apperror.FromResponse(409, string(apperror.InsufficientStockCode), "", map[string]any{
			"productId":         m.ProductID,
			"availableQuantity": m.AvailableQuantity,
		})
		return nil, e
	}
	tok, ok := s.tokens[req.PaymentTokenID]
	if !ok || tok.used {
		return nil, apperror.New(apperror.PaymentFailedCode, "Payment token is invalid or already used.")
	}
	if tok.declined {
		return nil, apperror.New(apperror.PaymentFailedCode, "")
	}
	tok.used = true

	s.orderSeq++
	o := &order{userID: userID}
	o.order = model.Order{
		ID:              "o-" + uuid.NewString()[:8],
		OrderNumber:     fmt.Sprintf("FM-%04d", s.orderSeq),
		Status:          statusPending,
		Subtotal:        pricing.Subtotal,
		DeliveryFee:     pricing.DeliveryFee,
		Total:           pricing.Total,
		FulfillmentType: req.FulfillmentType,
		BranchID:        req.BranchID,
		DeliverySlotID:  req.DeliverySlotID,
		CreatedAt:       s.now().UTC(),
	}
	if o.order.BranchID == "" {
		o.order.BranchID = defaultBranchID
		if sl != nil {
			o.order.BranchID = sl.BranchID
		}
	}
	for i, l := range c.lines {
		p := s.products[l.productID]
		*p.AvailableQuantity -= l.quantity
		o.order.Items = append(o.order.Items, model.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: l.quantity})
		o.picking = append(o.picking, model.PickingItem{
			ID:           fmt.Sprintf("%s-i%d", o.order.ID, i+1),
			ProductID:    p.ID,
			Name:         p.Name,
			Quantity:     l.quantity,
			PickedStatus: model.PickPending,
		})
	}
	if sl != nil && sl.RemainingCapacity != nil {
		*sl.RemainingCapacity--
	}
	s.orders[o.order.ID] = o
	s.carts[userID] = &userCart{id: "cart-" + uuid.NewString()[:8]}

	res := model.ConfirmResult{OrderID: o.order.ID, OrderNumber: o.order.OrderNumber, Total: o.order.Total, Status: o.order.Status}
	if key != "" {
		s.idem[userID+"|"+key] = res
	}
	return &res, nil
}

// ---- orders ----

func (s *state) listOrders(userID string) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range s.orders {
		if o.userID == userID {
			out = append(out, o.order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return out
}

func (s *state) getOrder(userID, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.userID != userID {
		return nil, notFound("Order")
	}
	out := o.order
	return &out, nil
}

func (s *state) cancelOrder(userID, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.userID != userID {
		return nil, notFound("Order")
	}
	if o.order.Status != statusPending {
		return nil, apperror.Newf(apperror.ConflictCode, "Order in status %s cannot be cancelled.", o.order.Status)
	}
	o.order.Status = statusCancelled
	for _, it := range o.order.Items {
		if p := s.products[it.ProductID]; p != nil && p.AvailableQuantity != nil {
			*p.AvailableQuantity += it.Quantity
		}
	}
	out := o.order
	return &out, nil
}

// ---- ops ----

func (s *state) pickingOrder(o *order) model.PickingOrder {
	return model.PickingOrder{
		ID:          o.order.ID,
		OrderNumber: o.order.OrderNumber,
		Status:      o.order.Status,
		BranchID:    o.order.BranchID,
		Items:       append([]model.PickingItem{}, o.picking...),
	}
}

func (s *state) listPicking(status string) []model.PickingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.PickingOrder{}
	for _, o := range s.orders {
		if status != "" && o.order.Status != status {
			continue
		}
		out = append(out, s.pickingOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out
}

func (s *state) updatePick(orderID, itemID string, status model.PickedStatus) (*model.PickingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch status {
	case model.PickPending, model.PickPicked, model.PickMissing, model.PickReplaced:
	default:
		return nil, apperror.Newf(apperror.ValidationErrorCode, "Unknown picked status %s.", status)
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, notFound("Order")
	}
	for i := range o.picking {
		if o.picking[i].ID == itemID {
			o.picking[i].PickedStatus = status
			po := s.pickingOrder(o)
			return &po, nil
		}
	}
	return nil, notFound("Order item")
}

func (s *state) updateOrderStatus(orderID, status string) (*model.PickingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	valid := false
	for _, st := range orderStatusSequences {
		if st == status {
			valid = true
		}
	}
	if !valid {
		return nil, apperror.Newf(apperror.ValidationErrorCode, "Unknown order status %s.", status)
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, notFound("Order")
	}
	if o.order.Status == statusCancelled {
		return nil, apperror.New(apperror.ConflictCode, "Order is cancelled.")
	}
	o.order.Status = status
	po := s.pickingOrder(o)
	return &po, nil
}

func inventoryID(productID string) string {
	return "inv-" + productID
}

func (s *state) inventoryRecord(p *model.Product, branchID string) model.InventoryRecord {
	reserved := 0
	for _, o := range s.orders {
		if o.order.Status == statusCancelled || o.order.Status == "COMPLETED" {
			continue
		}
		for _, it := range o.order.Items {
			if it.ProductID == p.ID {
				reserved += it.Quantity
			}
		}
	}
	avail := 0
	if p.AvailableQuantity != nil {
		avail = *p.AvailableQuantity
	}
	return model.InventoryRecord{
		ID:                inventoryID(p.ID),
		BranchID:          branchID,
		ProductID:         p.ID,
		ProductName:       p.Name,
		AvailableQuantity: avail,
		ReservedQuantity:  reserved,
	}
}

// 庫存只有一份，branchID 只用於顯示
func (s *state) listInventory(branchID string) []model.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if branchID == "" {
		branchID = defaultBranchID
	}
	out := []model.InventoryRecord{}
	for _, p := range s.products {
		out = append(out, s.inventoryRecord(p, branchID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) adjustInventory(id string, qty int) (*model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty < 0 {
		return nil, apperror.New(apperror.ValidationErrorCode, "Available quantity cannot be negative.")
	}
	p, ok := s.products[strings.TrimPrefix(id, "inv-")]
	if !ok {
		return nil, notFound("Inventory record")
	}
	p.AvailableQuantity = intPtr(qty)
	rec := s.inventoryRecord(p, defaultBranchID)
	return &rec, nil
}

func (s *state) stats() model.OpsStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.now().UTC().Truncate(24 * time.Hour)
	var st model.OpsStats
	for _, o := range s.orders {
		if !o.order.CreatedAt.Before(today) {
			st.OrdersToday++
		}
		if o.order.Status == statusCancelled {
			continue
		}
		for _, it := range o.picking {
			if it.PickedStatus == model.PickPending {
				st.PendingPicks++
			}
		}
	}
	for _, p := range s.products {
		if p.IsActive && p.AvailableQuantity != nil && *p.AvailableQuantity < lowStockThreshold {
			st.LowStockCount++
		}
	}
	return st
}

// ---- admin ----

func (s *state) createProduct(in model.ProductInput) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Name == "" || in.Price == nil || in.Price.IsNegative() {
		return nil, apperror.New(apperror.ValidationErrorCode, "Name and a non-negative price are required.")
	}
	p := &model.Product{ID: "p-" + uuid.NewString()[:8], IsActive: true, AvailableQuantity: intPtr(0)}
	applyProductInput(p, in)
	s.products[p.ID] = p
	out := *p
	return &out, nil
}

func (s *state) updateProduct(id string, in model.ProductInput) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, notFound("Product")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, apperror.New(apperror.ValidationErrorCode, "Price cannot be negative.")
	}
	applyProductInput(p, in)
	out := *p
	return &out, nil
}

func (s *state) setProductActive(id string, active bool) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, notFound("Product")
	}
	p.IsActive = active
	out := *p
	return &out, nil
}

func applyProductInput(p *model.Product, in model.ProductInput) {
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Image != "" {
		p.Image = in.Image
	}
	if in.Unit != "" {
		p.Unit = in.Unit
	}
	if in.CategoryID != "" {
		p.CategoryID = in.CategoryID
	}
	if in.AvailableQuantity != nil {
		p.AvailableQuantity = intPtr(*in.AvailableQuantity)
	}
}
