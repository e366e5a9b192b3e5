package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/navigation"
	"github.com/RoyceAzure/lab/freshmarket/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var fixedNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type ServerTestSuite struct {
	suite.Suite
	srv    *httptest.Server
	sess   *session.Session
	nav    *navigation.Recorder
	client *client.Client
	ctx    context.Context
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	server, err := NewServer("test-secret-123", nil, WithClock(func() time.Time { return fixedNow }))
	s.Require().NoError(err)
	s.srv = httptest.NewServer(server.Router())
	s.T().Cleanup(s.srv.Close)

	s.sess = session.New(storage.NewMemoryStore(), storage.NewMemoryStore())
	s.nav = navigation.NewRecorder(nil)
	s.client = client.New(client.Config{BaseURL: s.srv.URL + "/api/v1", Timeout: 5 * time.Second}, s.sess, s.nav, nil)
	s.ctx = context.Background()
}

func (s *ServerTestSuite) login(email string) model.AuthResult {
	var res model.AuthResult
	s.Require().NoError(s.client.Post(s.ctx, "/auth/login", model.LoginRequest{Email: email, Password: "password"}, &res))
	s.Require().NoError(s.sess.Login(s.ctx, res.AccessToken, constants.Role(res.User.Role), false))
	return res
}

func (s *ServerTestSuite) cart() model.RemoteCart {
	var rc model.RemoteCart
	s.Require().NoError(s.client.Get(s.ctx, "/cart", &rc))
	return rc
}

func (s *ServerTestSuite) paymentToken(number string) string {
	var tok model.PaymentToken
	s.Require().NoError(s.client.Post(s.ctx, "/payments/tokens", model.Card{Number: number, Expiry: "12/30", CVV: "123"}, &tok))
	return tok.ID
}

func (s *ServerTestSuite) TestLoginIssuesVerifiableToken() {
	res := s.login("customer@freshmarket.test")
	s.Require().Equal("u-customer", res.User.ID)
	s.Require().Equal(string(constants.RoleCustomer), res.User.Role)

	claims, err := session.ParseClaims(res.AccessToken)
	s.Require().NoError(err)
	s.Require().Equal("u-customer", claims.Subject)
}

func (s *ServerTestSuite) TestLoginWrongPassword() {
	err := s.client.Post(s.ctx, "/auth/login", model.LoginRequest{Email: "customer@freshmarket.test", Password: "nope"}, nil)
	s.Require().True(apperror.IsCode(err, apperror.UnauthorizedCode))
}

func (s *ServerTestSuite) TestCatalogIsPublic() {
	var products []model.Product
	s.Require().NoError(s.client.Get(s.ctx, "/catalog/products", &products, client.WithQuery(map[string]any{"categoryId": "c1"})))
	s.Require().Len(products, 2)
	s.Require().Equal("p1", products[0].ID)
	s.Require().Equal(20, *products[0].AvailableQuantity)
	s.Require().True(decimal.RequireFromString("2.49").Equal(products[0].Price))

	var p model.Product
	err := s.client.Get(s.ctx, "/catalog/products/nope", &p)
	s.Require().True(apperror.IsCode(err, apperror.NotFoundCode))
}

func (s *ServerTestSuite) TestDeliverySlotsIncludeDuplicate() {
	var slots []model.DeliverySlot
	s.Require().NoError(s.client.Get(s.ctx, "/delivery-slots", &slots, client.WithQuery(map[string]any{"branchId": "b1"})))
	s.Require().Len(slots, 4)
	s.Require().True(fixedNow.Add(25 * time.Hour).Equal(slots[0].StartsAt))
}

func (s *ServerTestSuite) TestCartRequiresLogin() {
	s.Require().NoError(s.sess.Login(s.ctx, "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1MSJ9.c2ln", "customer", true))

	var rc model.RemoteCart
	err := s.client.Get(s.ctx, "/cart", &rc)
	s.Require().True(apperror.IsCode(err, apperror.UnauthorizedCode))
	// 401 會清除 session 並導向登入
	s.Require().False(s.sess.IsAuthenticated(s.ctx))
	last, ok := s.nav.Last()
	s.Require().True(ok)
	s.Require().Equal("#"+constants.RouteLogin, last.Route)
}

func (s *ServerTestSuite) TestCartLifecycle() {
	s.login("customer@freshmarket.test")

	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p1", "quantity": 2}, nil))
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p1", "quantity": 1}, nil))
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p4", "quantity": 1}, nil))
	rc := s.cart()
	s.Require().NotEmpty(rc.ID)
	s.Require().Len(rc.Items, 2)
	s.Require().Equal(3, rc.Items[0].Quantity)

	s.Require().NoError(s.client.Patch(s.ctx, "/cart/items/p1", map[string]any{"quantity": 5}, nil))
	s.Require().Equal(5, s.cart().Items[0].Quantity)

	s.Require().NoError(s.client.Delete(s.ctx, "/cart/items/p4", nil))
	s.Require().Len(s.cart().Items, 1)

	s.Require().NoError(s.client.Delete(s.ctx, "/cart", nil))
	s.Require().Empty(s.cart().Items)
}

func (s *ServerTestSuite) TestPreviewChargesDeliveryFee() {
	s.login("customer@freshmarket.test")
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p1", "quantity": 2}, nil))
	rc := s.cart()

	var p model.CheckoutPreview
	s.Require().NoError(s.client.Post(s.ctx, "/checkout/preview", model.PreviewRequest{CartID: rc.ID, FulfillmentType: model.Delivery}, &p))
	s.Require().True(decimal.RequireFromString("4.98").Equal(p.Subtotal))
	s.Require().True(decimal.RequireFromString("4.99").Equal(p.DeliveryFee))
	s.Require().True(decimal.RequireFromString("9.97").Equal(p.Total))

	s.Require().NoError(s.client.Post(s.ctx, "/checkout/preview", model.PreviewRequest{CartID: rc.ID, FulfillmentType: model.Pickup, BranchID: "b2"}, &p))
	s.Require().True(p.DeliveryFee.IsZero())

	err := s.client.Post(s.ctx, "/checkout/preview", model.PreviewRequest{CartID: rc.ID, FulfillmentType: model.Pickup}, &p)
	s.Require().True(apperror.IsCode(err, apperror.ValidationErrorCode))
}

func (s *ServerTestSuite) TestConfirmIsIdempotent() {
	s.login("customer@freshmarket.test")
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p2", "quantity": 2}, nil))
	rc := s.cart()
	req := model.ConfirmRequest{CartID: rc.ID, PaymentTokenID: s.paymentToken("4242 4242 4242 4242"), FulfillmentType: model.Delivery, DeliverySlotID: "b1-s2"}

	var first, second model.ConfirmResult
	s.Require().NoError(s.client.Post(s.ctx, "/checkout/confirm", req, &first, client.WithIdempotencyKey("k-1")))
	s.Require().NoError(s.client.Post(s.ctx, "/checkout/confirm", req, &second, client.WithIdempotencyKey("k-1")))
	s.Require().Equal("FM-0001", first.OrderNumber)
	s.Require().Equal(first, second)

	// 成功後換新的購物車
	after := s.cart()
	s.Require().NotEqual(rc.ID, after.ID)
	s.Require().Empty(after.Items)

	var p model.Product
	s.Require().NoError(s.client.Get(s.ctx, "/catalog/products/p2", &p))
	s.Require().Equal(3, *p.AvailableQuantity)

	var orders []model.Order
	s.Require().NoError(s.client.Get(s.ctx, "/orders", &orders))
	s.Require().Len(orders, 1)
}

func (s *ServerTestSuite) TestConfirmInsufficientStock() {
	s.login("customer@freshmarket.test")
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p2", "quantity": 9}, nil))
	rc := s.cart()

	err := s.client.Post(s.ctx, "/checkout/confirm", model.ConfirmRequest{
		CartID: rc.ID, PaymentTokenID: s.paymentToken("4242424242424242"), FulfillmentType: model.Delivery,
	}, nil, client.WithIdempotencyKey("k-2"))
	var ae *apperror.Error
	s.Require().ErrorAs(err, &ae)
	s.Require().Equal(apperror.InsufficientStockCode, ae.Code)
	s.Require().Equal(http.StatusConflict, ae.Status)
	s.Require().Equal("p2", ae.Details["productId"])
}

func (s *ServerTestSuite) TestConfirmDeclinedCard() {
	s.login("customer@freshmarket.test")
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p1", "quantity": 1}, nil))
	rc := s.cart()

	err := s.client.Post(s.ctx, "/checkout/confirm", model.ConfirmRequest{
		CartID: rc.ID, PaymentTokenID: s.paymentToken(declinedCardNumber), FulfillmentType: model.Pickup, BranchID: "b1",
	}, nil, client.WithIdempotencyKey("k-3"))
	s.Require().True(apperror.IsCode(err, apperror.PaymentFailedCode))
	s.Require().Len(s.cart().Items, 1)
}

func (s *ServerTestSuite) TestCancelOrderRestocks() {
	s.login("customer@freshmarket.test")
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p4", "quantity": 2}, nil))
	rc := s.cart()
	var res model.ConfirmResult
	s.Require().NoError(s.client.Post(s.ctx, "/checkout/confirm", model.ConfirmRequest{
		CartID: rc.ID, PaymentTokenID: s.paymentToken("4242424242424242"), FulfillmentType: model.Pickup, BranchID: "b1",
	}, &res, client.WithIdempotencyKey("k-4")))

	var o model.Order
	s.Require().NoError(s.client.Post(s.ctx, "/orders/"+res.OrderID+"/cancel", nil, &o))
	s.Require().Equal("CANCELLED", o.Status)

	err := s.client.Post(s.ctx, "/orders/"+res.OrderID+"/cancel", nil, &o)
	s.Require().True(apperror.IsCode(err, apperror.ConflictCode))

	var p model.Product
	s.Require().NoError(s.client.Get(s.ctx, "/catalog/products/p4", &p))
	s.Require().Equal(12, *p.AvailableQuantity)
}

func (s *ServerTestSuite) TestOpsRequiresStaff() {
	s.login("customer@freshmarket.test")
	var stats model.OpsStats
	err := s.client.Get(s.ctx, "/ops/stats", &stats)
	s.Require().True(apperror.IsCode(err, apperror.ForbiddenCode))
	// 403 不會登出
	s.Require().True(s.sess.IsAuthenticated(s.ctx))
}

func (s *ServerTestSuite) TestOpsPickingFlow() {
	s.login("customer@freshmarket.test")
	s.Require().NoError(s.client.Post(s.ctx, "/cart/items", map[string]any{"productId": "p1", "quantity": 1}, nil))
	rc := s.cart()
	s.Require().NoError(s.client.Post(s.ctx, "/checkout/confirm", model.ConfirmRequest{
		CartID: rc.ID, PaymentTokenID: s.paymentToken("4242424242424242"), FulfillmentType: model.Pickup, BranchID: "b2",
	}, nil, client.WithIdempotencyKey("k-5")))

	s.login("staff@freshmarket.test")
	var orders []model.PickingOrder
	s.Require().NoError(s.client.Get(s.ctx, "/ops/orders", &orders, client.WithQuery(map[string]any{"status": "PENDING"})))
	s.Require().Len(orders, 1)
	s.Require().Equal("b2", orders[0].BranchID)

	var po model.PickingOrder
	path := "/ops/orders/" + orders[0].ID + "/items/" + orders[0].Items[0].ID
	s.Require().NoError(s.client.Patch(s.ctx, path, map[string]any{"pickedStatus": model.PickPicked}, &po))
	s.Require().Equal(model.PickPicked, po.Items[0].PickedStatus)

	s.Require().NoError(s.client.Patch(s.ctx, "/ops/orders/"+orders[0].ID+"/status", map[string]any{"status": "READY"}, &po))
	s.Require().Equal("READY", po.Status)

	var stats model.OpsStats
	s.Require().NoError(s.client.Get(s.ctx, "/ops/stats", &stats))
	s.Require().Equal(1, stats.OrdersToday)
	s.Require().Equal(0, stats.PendingPicks)
	// 只有 p3 低於門檻
	s.Require().Equal(1, stats.LowStockCount)
}

func (s *ServerTestSuite) TestInventoryAdjust() {
	s.login("staff@freshmarket.test")
	var rec model.InventoryRecord
	s.Require().NoError(s.client.Patch(s.ctx, "/ops/inventory/inv-p3", map[string]any{"availableQuantity": 7}, &rec))
	s.Require().Equal(7, rec.AvailableQuantity)

	err := s.client.Patch(s.ctx, "/ops/inventory/inv-p3", map[string]any{"availableQuantity": -1}, &rec)
	s.Require().True(apperror.IsCode(err, apperror.ValidationErrorCode))

	var list []model.InventoryRecord
	s.Require().NoError(s.client.Get(s.ctx, "/ops/inventory", &list, client.WithQuery(map[string]any{"branchId": "b2"})))
	s.Require().Len(list, 4)
	s.Require().Equal("b2", list[0].BranchID)
}

func (s *ServerTestSuite) TestAdminProducts() {
	s.login("staff@freshmarket.test")
	err := s.client.Post(s.ctx, "/admin/products", model.ProductInput{Name: "Butter"}, nil)
	s.Require().True(apperror.IsCode(err, apperror.ForbiddenCode))

	s.login("admin@freshmarket.test")
	price := decimal.RequireFromString("3.75")
	var p model.Product
	s.Require().NoError(s.client.Post(s.ctx, "/admin/products", model.ProductInput{Name: "Butter", Price: &price, CategoryID: "c1"}, &p))
	s.Require().True(p.IsActive)

	s.Require().NoError(s.client.Patch(s.ctx, "/admin/products/"+p.ID+"/active", map[string]any{"isActive": false}, &p))
	s.Require().False(p.IsActive)

	var products []model.Product
	s.Require().NoError(s.client.Get(s.ctx, "/catalog/products", &products, client.WithQuery(map[string]any{"search": "butter"})))
	s.Require().Empty(products)
}
