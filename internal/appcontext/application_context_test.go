package appcontext

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/RoyceAzure/lab/freshmarket/internal/checkout"
	"github.com/RoyceAzure/lab/freshmarket/internal/config"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/cache"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/mockapi"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/navigation"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cf, err := config.Load("")
	require.NoError(t, err)

	backend, err := mockapi.NewServer(cf.MockJwtSecret, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cf.ApiBaseUrl = srv.URL + "/api/v1"
	cf.SessionStore = "memory"
	cf.DurableStore = "file"
	cf.DataDir = filepath.Join(dir, "data")
	cf.LogLevel = "disabled"
	return cf
}

func TestCheckoutEndToEnd(t *testing.T) {
	ctx := context.Background()
	nav := navigation.NewRecorder(nil)
	app, err := NewApplicationContext(testConfig(t), WithNavigator(nav), WithOutput(io.Discard), WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Shutdown(ctx)) })

	require.IsType(t, cache.NopCache{}, app.Cache)
	_, err = app.AuthService.Login(ctx, "customer@freshmarket.test", "password", true)
	require.NoError(t, err)

	milk, err := app.CatalogService.GetProduct(ctx, "p1")
	require.NoError(t, err)
	eggs, err := app.CatalogService.GetProduct(ctx, "p4")
	require.NoError(t, err)
	require.NoError(t, app.Cart.AddItem(ctx, *milk, 2))
	require.NoError(t, app.Cart.AddItem(ctx, *eggs, 1))
	require.Equal(t, 3, app.Cart.Count())
	require.NotEmpty(t, app.Cart.CartID())

	co := app.NewCheckout()
	require.NoError(t, co.SetAuthenticated(ctx, true))
	require.NoError(t, co.SelectMethod(ctx, model.Pickup))
	require.NoError(t, co.SelectBranch(ctx, "b2"))
	require.NotNil(t, co.State().Preview)
	require.NoError(t, co.Next())
	require.NoError(t, co.Next())
	require.Equal(t, checkout.StepPayment, co.State().Step)

	snap, err := co.PlaceOrder(ctx, app.PaymentService, model.Card{Number: "4242 4242 4242 4242", Expiry: "12/30", CVV: "123"})
	require.NoError(t, err)
	require.Equal(t, "FM-0001", snap.OrderNumber)
	require.True(t, decimal.RequireFromString("6.98").Equal(snap.Total))
	require.Equal(t, "Store pickup at branch b2", snap.Fulfillment)
	require.Len(t, snap.Items, 2)

	// 本地購物車已清空，成功頁可由 durable scope 取回
	require.Zero(t, app.Cart.Count())
	stored, ok, err := checkout.LoadOrderSuccess(ctx, app.DurableScope, snap.OrderID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.OrderNumber, stored.OrderNumber)

	last, ok := nav.Last()
	require.True(t, ok)
	require.Equal(t, "#"+constants.RouteOrderSuccess+"/"+snap.OrderID, last.Route)

	orders, err := app.OrderService.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestDurableFileSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cf := testConfig(t)

	app, err := NewApplicationContext(cf, WithOutput(io.Discard), WithLogOutput(io.Discard))
	require.NoError(t, err)
	_, err = app.AuthService.Login(ctx, "customer@freshmarket.test", "password", true)
	require.NoError(t, err)
	bread, err := app.CatalogService.GetProduct(ctx, "p2")
	require.NoError(t, err)
	require.NoError(t, app.Cart.AddItem(ctx, *bread, 2))
	require.NoError(t, app.Shutdown(ctx))

	again, err := NewApplicationContext(cf, WithOutput(io.Discard), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.True(t, again.Session.IsAuthenticated(ctx))
	require.NoError(t, again.Cart.Hydrate(ctx))
	require.Equal(t, 2, again.Cart.Count())
	require.True(t, decimal.RequireFromString("9").Equal(again.Cart.Total()))

	// 登出後只讀本地快照，上一個帳號的購物車不會留下來
	require.NoError(t, again.Session.Logout(ctx))
	require.NoError(t, again.Cart.Hydrate(ctx))
	require.Zero(t, again.Cart.Count())
	require.True(t, decimal.Zero.Equal(again.Cart.Total()))
	require.NoError(t, again.Shutdown(ctx))
}

func TestRedisBackedStores(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cf := testConfig(t)
	cf.DurableStore = "redis"
	cf.RedisAddr = mr.Addr()

	app, err := NewApplicationContext(cf, WithOutput(io.Discard), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.IsType(t, &cache.RedisCache{}, app.Cache)
	require.IsType(t, &storage.RedisStore{}, app.DurableScope)

	_, err = app.AuthService.Login(ctx, "customer@freshmarket.test", "password", true)
	require.NoError(t, err)
	require.True(t, mr.Exists("freshmarket:durable:"+constants.DurableTokenKey))

	_, err = app.CatalogService.ListCategories(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("freshmarket:catalog:categories"))
	require.NoError(t, app.Shutdown(ctx))
}

func TestUnknownStoreKind(t *testing.T) {
	cf := testConfig(t)
	cf.SessionStore = "cookie"
	_, err := NewApplicationContext(cf, WithOutput(io.Discard), WithLogOutput(io.Discard))
	require.ErrorContains(t, err, "SESSION_STORE")

	cf = testConfig(t)
	cf.DurableStore = "redis"
	_, err = NewApplicationContext(cf, WithOutput(io.Discard), WithLogOutput(io.Discard))
	require.ErrorContains(t, err, "REDIS_ADDR")
}
