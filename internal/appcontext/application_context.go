package appcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoyceAzure/lab/freshmarket/internal/activity"
	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/cart"
	"github.com/RoyceAzure/lab/freshmarket/internal/checkout"
	"github.com/RoyceAzure/lab/freshmarket/internal/config"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/cache"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/kafka"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/logger"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/navigation"
	"github.com/RoyceAzure/lab/freshmarket/internal/service"
	"github.com/RoyceAzure/lab/freshmarket/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	sessionFileName = "session.json"
	durableFileName = "durable.json"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	SessionScope storage.Store
	DurableScope storage.Store
	RedisClient  *redis.Client
	Cache        cache.Cache

	Session   *session.Session
	Navigator navigation.Navigator
	Client    *client.Client
	Publisher activity.Publisher

	AuthService     *service.AuthService
	CatalogService  *service.CatalogService
	BranchService   *service.BranchService
	CheckoutService *service.CheckoutService
	PaymentService  *service.PaymentService
	OrderService    *service.OrderService
	OpsService      *service.OpsService
	AdminService    *service.AdminService

	Cart *cart.Store

	out       io.Writer
	logOut    io.Writer
	logWriter *kafka.LogWriter
	closers   []io.Closer
}

type Option func(*ApplicationContext)

// WithNavigator 預設為印到 out 的 Recorder
func WithNavigator(n navigation.Navigator) Option {
	return func(app *ApplicationContext) { app.Navigator = n }
}

// WithOutput 使用者可見的輸出 (跳轉提示、購物車抽屜)
func WithOutput(w io.Writer) Option {
	return func(app *ApplicationContext) { app.out = w }
}

func WithLogOutput(w io.Writer) Option {
	return func(app *ApplicationContext) { app.logOut = w }
}

func NewApplicationContext(cf *config.Config, opts ...Option) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		out:    os.Stdout,
		logOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(&app)
	}
	if err := app.Init(); err != nil {
		// 已建立的連線要釋放
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpLogger,
		app.setUpStores,
		app.setUpCache,
		app.setUpSession,
		app.setUpClient,
		app.setUpPublisher,
		app.setUpServices,
		app.setUpCart,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpLogger() error {
	var opts []logger.Option
	opts = append(opts, logger.WithOutput(app.logOut))
	if brokers := app.Cf.Brokers(); len(brokers) > 0 && app.Cf.KafkaLogTopic != "" {
		w, err := kafka.NewKafkaWriter(kafka.Config{Brokers: brokers, Topic: app.Cf.KafkaLogTopic})
		if err != nil {
			return fmt.Errorf("failed to setup kafka log writer: %w", err)
		}
		// log 寫入失敗不能再寫回同一個 logger，直接丟棄
		app.logWriter = kafka.NewLogWriter(kafka.NewAsyncProducer(w, app.Cf.KafkaLogTopic))
		app.closers = append(app.closers, app.logWriter)
		opts = append(opts, logger.WithSink(app.logWriter))
	}
	l := logger.New(app.Cf.ModulerName, app.Cf.LogLevel, app.Cf.LogFormat, opts...)
	app.Logger = &l
	app.Logger.Debug().Str("api_base_url", app.Cf.ApiBaseUrl).Msg("logger ready")
	return nil
}

func (app *ApplicationContext) setUpStores() error {
	switch app.Cf.SessionStore {
	case "memory":
		app.SessionScope = storage.NewMemoryStore()
	case "file", "":
		fs, err := storage.NewFileStore(filepath.Join(app.Cf.SessionDir, sessionFileName))
		if err != nil {
			return fmt.Errorf("failed to setup session store: %w", err)
		}
		app.SessionScope = fs
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", app.Cf.SessionStore)
	}

	switch app.Cf.DurableStore {
	case "redis":
		if err := app.setUpRedis(); err != nil {
			return err
		}
		app.DurableScope = storage.NewRedisStore(app.RedisClient, app.Cf.CachePrefix+":durable")
	case "file", "":
		fs, err := storage.NewFileStore(filepath.Join(app.Cf.DataDir, durableFileName))
		if err != nil {
			return fmt.Errorf("failed to setup durable store: %w", err)
		}
		app.DurableScope = fs
	default:
		return fmt.Errorf("unknown DURABLE_STORE %q", app.Cf.DurableStore)
	}
	return nil
}

func (app *ApplicationContext) setUpRedis() error {
	if app.RedisClient != nil {
		return nil
	}
	if app.Cf.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}
	rdb, err := cache.NewRedisClient(context.Background(), app.Cf.RedisAddr,
		cache.WithPassword(app.Cf.RedisPassword), cache.WithDB(app.Cf.RedisDB))
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	app.RedisClient = rdb
	app.closers = append(app.closers, rdb)
	return nil
}

// setUpCache 沒有設定 redis 時不使用 cache
func (app *ApplicationContext) setUpCache() error {
	if app.Cf.RedisAddr == "" {
		app.Cache = cache.NopCache{}
		return nil
	}
	if err := app.setUpRedis(); err != nil {
		return err
	}
	app.Cache = cache.NewRedisCache(app.RedisClient, app.Cf.CachePrefix)
	return nil
}

func (app *ApplicationContext) setUpSession() error {
	app.Session = session.New(app.SessionScope, app.DurableScope)
	if app.Navigator == nil {
		app.Navigator = navigation.NewRecorder(app.out)
	}
	return nil
}

func (app *ApplicationContext) setUpClient() error {
	app.Client = client.New(client.Config{
		BaseURL: app.Cf.ApiBaseUrl,
		Timeout: app.Cf.ApiTimeout,
	}, app.Session, app.Navigator, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpPublisher() error {
	brokers := app.Cf.Brokers()
	if len(brokers) == 0 || app.Cf.KafkaActivityTopic == "" {
		app.Publisher = activity.NopPublisher{}
		return nil
	}
	w, err := kafka.NewKafkaWriter(kafka.Config{Brokers: brokers, Topic: app.Cf.KafkaActivityTopic})
	if err != nil {
		return fmt.Errorf("failed to setup activity publisher: %w", err)
	}
	producer := kafka.NewAsyncProducer(w, app.Cf.KafkaActivityTopic,
		kafka.WithFailedHandler(func(msg kafkago.Message, err error) {
			app.Logger.Warn().Err(err).Str("key", string(msg.Key)).Msg("failed to deliver activity event")
		}))
	p := activity.NewKafkaPublisher(producer, app.Logger)
	app.Publisher = p
	app.closers = append(app.closers, p)
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	ttl := app.Cf.CatalogCacheTTL
	app.AuthService = service.NewAuthService(app.Client, app.Session)
	app.CatalogService = service.NewCatalogService(app.Client, app.Cache, ttl, app.Logger)
	app.BranchService = service.NewBranchService(app.Client, app.Cache, ttl, app.Logger)
	app.CheckoutService = service.NewCheckoutService(app.Client, app.BranchService)
	app.PaymentService = service.NewPaymentService(app.Client)
	app.OrderService = service.NewOrderService(app.Client)
	app.OpsService = service.NewOpsService(app.Client, app.Session)
	app.AdminService = service.NewAdminService(app.Client, app.Session, app.CatalogService)
	return nil
}

func (app *ApplicationContext) setUpCart() error {
	drawer := cart.DrawerFunc(func(item model.CartItem) {
		fmt.Fprintf(app.out, "Added %s (x%d) to your cart\n", item.Name, item.Quantity)
	})
	app.Cart = cart.NewStore(app.Session,
		cart.NewLocalRepository(app.DurableScope),
		cart.NewRemoteRepository(app.Client),
		cart.WithDrawer(drawer),
		cart.WithPublisher(app.Publisher),
		cart.WithLogger(app.Logger),
	)
	return nil
}

// NewCheckout 每次進入結帳頁建立一個新的流程
func (app *ApplicationContext) NewCheckout() *checkout.Coordinator {
	return checkout.NewCoordinator(app.CheckoutService, app.Cart, app.SessionScope, app.DurableScope,
		checkout.WithNavigator(app.Navigator),
		checkout.WithPublisher(app.Publisher),
		checkout.WithSubject(app.Session.Subject),
		checkout.WithLogger(app.Logger),
	)
}

// Shutdown 依建立的反序關閉
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
