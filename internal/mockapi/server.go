package mockapi

import (
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultTokenDuration = 24 * time.Hour

type Option func(*Server)

// WithClock 測試時固定時段日期
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithTokenDuration(d time.Duration) Option {
	return func(s *Server) { s.tokenDuration = d }
}

// WithLoginLimit 登入與註冊的限流設定
func WithLoginLimit(cfg LimiterConfig) Option {
	return func(s *Server) { s.loginLimit = cfg }
}

// Server 記憶體內的假後端，開發與整合測試使用
type Server struct {
	handler       *Handler
	router        *chi.Mux
	TokenMaker    *TokenMaker
	now           func() time.Time
	tokenDuration time.Duration
	loginLimit    LimiterConfig
}

func NewServer(secret string, logger *zerolog.Logger, opts ...Option) (*Server, error) {
	tokenMaker, err := NewTokenMaker(secret)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Server{
		TokenMaker:    tokenMaker,
		now:           time.Now,
		tokenDuration: defaultTokenDuration,
		loginLimit:    defaultLoginLimit(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = &Handler{
		state:         newState(s.now),
		tokenMaker:    tokenMaker,
		tokenDuration: s.tokenDuration,
		logger:        logger,
	}
	s.router = s.setupRouter(logger)
	return s, nil
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) setupRouter(logger *zerolog.Logger) *chi.Mux {
	h := s.handler
	r := chi.NewRouter()

	// 全局中間件
	r.Use(RequestIdMiddleware)
	r.Use(AuthPayloadMiddleware(s.TokenMaker))
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(newKeyedLimiter(s.loginLimit, s.now)))
			r.Post("/auth/login", h.Login)
			r.Post("/auth/register", h.Register)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", h.ListProducts)
			r.Get("/products/{id}", h.GetProduct)
			r.Get("/categories", h.ListCategories)
		})
		r.Get("/branches", h.ListBranches)
		r.Get("/delivery-slots", h.ListDeliverySlots)

		// 需要登入
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware)

			r.Get("/me", h.Me)
			r.Get("/me/addresses", h.ListAddresses)
			r.Post("/me/addresses", h.AddAddress)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Patch("/items/{productID}", h.UpdateCartItem)
				r.Delete("/items/{productID}", h.RemoveCartItem)
			})

			r.Post("/checkout/preview", h.Preview)
			r.Post("/checkout/confirm", h.Confirm)
			r.Post("/payments/tokens", h.CreatePaymentToken)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Post("/orders/{id}/cancel", h.CancelOrder)

			r.Route("/ops", func(r chi.Router) {
				r.Use(RequireRole(constants.StaffRoles...))
				r.Get("/orders", h.ListPickingOrders)
				r.Patch("/orders/{id}/items/{itemID}", h.UpdatePickStatus)
				r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
				r.Get("/inventory", h.ListInventory)
				r.Patch("/inventory/{id}", h.AdjustInventory)
				r.Get("/stats", h.Stats)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(constants.RoleAdmin))
				r.Post("/products", h.CreateProduct)
				r.Patch("/products/{id}", h.UpdateProduct)
				r.Patch("/products/{id}/active", h.SetProductActive)
			})
		})
	})
	return r
}
