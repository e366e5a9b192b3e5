package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/cache"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/mockapi"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/navigation"
	"github.com/RoyceAzure/lab/freshmarket/internal/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	mr       *miniredis.Miniredis
	requests atomic.Int64
	durable  *storage.MemoryStore
	sess     *session.Session

	auth     *AuthService
	catalog  *CatalogService
	branches *BranchService
	checkout *CheckoutService
	payments *PaymentService
	orders   *OrderService
	ops      *OpsService
	admin    *AdminService
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.requests.Store(0)

	backend, err := mockapi.NewServer("service-test-secret", nil)
	s.Require().NoError(err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		backend.Router().ServeHTTP(w, r)
	}))
	s.T().Cleanup(srv.Close)

	s.mr = miniredis.RunT(s.T())
	rdb, err := cache.NewRedisClient(s.ctx, s.mr.Addr())
	s.Require().NoError(err)
	c := cache.NewRedisCache(rdb, "svc")

	s.durable = storage.NewMemoryStore()
	s.sess = session.New(storage.NewMemoryStore(), s.durable)
	api := client.New(client.Config{BaseURL: srv.URL + "/api/v1", Timeout: 5 * time.Second}, s.sess, navigation.Nop{}, nil)

	s.auth = NewAuthService(api, s.sess)
	s.catalog = NewCatalogService(api, c, time.Minute, nil)
	s.branches = NewBranchService(api, c, time.Minute, nil)
	s.checkout = NewCheckoutService(api, s.branches)
	s.payments = NewPaymentService(api)
	s.orders = NewOrderService(api)
	s.ops = NewOpsService(api, s.sess)
	s.admin = NewAdminService(api, s.sess, s.catalog)
}

func (s *ServiceTestSuite) TestLoginRemember() {
	u, err := s.auth.Login(s.ctx, "customer@freshmarket.test", "password", true)
	s.Require().NoError(err)
	s.Require().Equal("Casey Customer", u.FullName)

	_, ok, err := s.durable.Get(s.ctx, constants.DurableTokenKey)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal(constants.RoleCustomer, s.sess.Role(s.ctx))

	me, err := s.auth.Me(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(u.ID, me.ID)

	s.Require().NoError(s.auth.Logout(s.ctx))
	s.Require().False(s.sess.IsAuthenticated(s.ctx))
}

func (s *ServiceTestSuite) TestRegisterLogsInForSession() {
	u, err := s.auth.Register(s.ctx, model.RegisterRequest{Email: "new@freshmarket.test", Password: "secret1", FullName: "New Shopper"})
	s.Require().NoError(err)
	s.Require().Equal(string(constants.RoleCustomer), u.Role)
	s.Require().True(s.sess.IsAuthenticated(s.ctx))

	_, ok, err := s.durable.Get(s.ctx, constants.DurableTokenKey)
	s.Require().NoError(err)
	s.Require().False(ok)

	_, err = s.auth.Register(s.ctx, model.RegisterRequest{Email: "new@freshmarket.test", Password: "secret1", FullName: "Again"})
	s.Require().True(apperror.IsCode(err, apperror.ConflictCode))
}

func (s *ServiceTestSuite) TestAddresses() {
	_, err := s.auth.Login(s.ctx, "customer@freshmarket.test", "password", false)
	s.Require().NoError(err)

	addr, err := s.auth.AddAddress(s.ctx, model.Address{Label: "Home", Street: "5 Elm St", City: "Springfield", Zip: "12345"})
	s.Require().NoError(err)
	s.Require().True(addr.IsDefault)

	list, err := s.auth.Addresses(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
}

func (s *ServiceTestSuite) TestCatalogCacheHit() {
	first, err := s.catalog.ListProducts(s.ctx, model.ProductQuery{CategoryID: "c1"})
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.Require().EqualValues(1, s.requests.Load())

	second, err := s.catalog.ListProducts(s.ctx, model.ProductQuery{CategoryID: "c1"})
	s.Require().NoError(err)
	s.Require().Equal(first, second)
	s.Require().EqualValues(1, s.requests.Load())
	s.Require().True(s.mr.Exists("svc:catalog:products:categoryId=c1"))

	// 不同條件是不同的 key
	_, err = s.catalog.ListProducts(s.ctx, model.ProductQuery{Search: "milk"})
	s.Require().NoError(err)
	s.Require().EqualValues(2, s.requests.Load())
}

func (s *ServiceTestSuite) TestCatalogWorksWhenRedisIsDown() {
	s.mr.Close()
	cats, err := s.catalog.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cats, 3)
}

func (s *ServiceTestSuite) TestBranchesCachedSlotsNot() {
	for i := 0; i < 2; i++ {
		branches, err := s.branches.ListBranches(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(branches, 2)
	}
	s.Require().EqualValues(1, s.requests.Load())

	for i := 0; i < 2; i++ {
		_, err := s.branches.ListDeliverySlots(s.ctx, "b1")
		s.Require().NoError(err)
	}
	s.Require().EqualValues(3, s.requests.Load())
}

func (s *ServiceTestSuite) TestOpsForbiddenWithoutRequest() {
	_, err := s.auth.Login(s.ctx, "customer@freshmarket.test", "password", false)
	s.Require().NoError(err)
	before := s.requests.Load()

	_, err = s.ops.Stats(s.ctx)
	s.Require().True(apperror.IsCode(err, apperror.ForbiddenCode))
	_, err = s.ops.ListInventory(s.ctx, "")
	s.Require().True(apperror.IsCode(err, apperror.ForbiddenCode))
	s.Require().Equal(before, s.requests.Load())
}

func (s *ServiceTestSuite) TestOpsAsStaff() {
	_, err := s.auth.Login(s.ctx, "staff@freshmarket.test", "password", false)
	s.Require().NoError(err)

	inv, err := s.ops.ListInventory(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(inv, 4)
	s.Require().Equal("b1", inv[0].BranchID)

	rec, err := s.ops.AdjustInventory(s.ctx, inv[0].ID, 30)
	s.Require().NoError(err)
	s.Require().Equal(30, rec.AvailableQuantity)

	_, err = s.ops.AdjustInventory(s.ctx, inv[0].ID, -2)
	s.Require().True(apperror.IsCode(err, apperror.ValidationErrorCode))

	orders, err := s.ops.ListPickingOrders(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Empty(orders)
}

func (s *ServiceTestSuite) TestAdminWriteInvalidatesCatalog() {
	_, err := s.catalog.ListProducts(s.ctx, model.ProductQuery{})
	s.Require().NoError(err)
	s.Require().True(s.mr.Exists("svc:catalog:products:all"))

	_, err = s.auth.Login(s.ctx, "admin@freshmarket.test", "password", false)
	s.Require().NoError(err)
	price := decimal.RequireFromString("1.99")
	p, err := s.admin.CreateProduct(s.ctx, model.ProductInput{Name: "Oat Milk", Price: &price, CategoryID: "c1"})
	s.Require().NoError(err)
	s.Require().False(s.mr.Exists("svc:catalog:products:all"))

	products, err := s.catalog.ListProducts(s.ctx, model.ProductQuery{})
	s.Require().NoError(err)
	s.Require().Len(products, 5)

	_, err = s.admin.SetProductActive(s.ctx, p.ID, false)
	s.Require().NoError(err)
	products, err = s.catalog.ListProducts(s.ctx, model.ProductQuery{})
	s.Require().NoError(err)
	s.Require().Len(products, 4)
}

func (s *ServiceTestSuite) TestAdminForbiddenForStaff() {
	_, err := s.auth.Login(s.ctx, "staff@freshmarket.test", "password", false)
	s.Require().NoError(err)
	_, err = s.admin.UpdateProduct(s.ctx, "p1", model.ProductInput{Name: "Milk"})
	s.Require().True(apperror.IsCode(err, apperror.ForbiddenCode))
}

func (s *ServiceTestSuite) TestCheckoutAndCancel() {
	_, err := s.auth.Login(s.ctx, "customer@freshmarket.test", "password", false)
	s.Require().NoError(err)

	cartID, err := s.checkout.CartID(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(cartID)

	preview, err := s.checkout.Preview(s.ctx, model.PreviewRequest{CartID: cartID, FulfillmentType: model.Pickup, BranchID: "b1"})
	s.Require().NoError(err)
	s.Require().True(preview.Total.IsZero())

	tok, err := s.payments.CreateToken(s.ctx, model.Card{Number: "4242 4242 4242 4242", Expiry: "12/30", CVV: "123"})
	s.Require().NoError(err)
	s.Require().Equal("4242", tok.Last4)

	// 空購物車無法下單
	_, err = s.checkout.Confirm(s.ctx, model.ConfirmRequest{CartID: cartID, PaymentTokenID: tok.ID, FulfillmentType: model.Pickup, BranchID: "b1"}, "k1")
	s.Require().True(apperror.IsCode(err, apperror.ValidationErrorCode))

	_, err = s.orders.GetOrder(s.ctx, "missing")
	s.Require().True(apperror.IsCode(err, apperror.NotFoundCode))
	list, err := s.orders.ListOrders(s.ctx)
	s.Require().NoError(err)
	s.Require().Empty(list)
}
