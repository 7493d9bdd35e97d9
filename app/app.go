package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soleshopapp/soleshop/internal/cache"
	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/config"
	"github.com/soleshopapp/soleshop/internal/db"
	"github.com/soleshopapp/soleshop/internal/email"
	"github.com/soleshopapp/soleshop/internal/handlers"
	"github.com/soleshopapp/soleshop/internal/logging"
	"github.com/soleshopapp/soleshop/internal/payments"
	"github.com/soleshopapp/soleshop/internal/services"
	"github.com/soleshopapp/soleshop/internal/session"
	"github.com/soleshopapp/soleshop/internal/shopapi"
)

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *pgxpool.Pool
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Handlers       *handlers.Handlers

	sentryEnabled bool
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled, err := initSentry(cfg)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, sentryEnabled)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	storeConfig, err := loadCatalog(cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	sessionStore, err := session.NewStore(startupCtx, session.Config{
		Provider:              cfg.SessionStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	sessionManager := session.NewManager(sessionStore, handlers.SecureCookiesFromConfig(cfg))

	shopClient, err := shopapi.NewClient(shopapi.Config{
		BaseURL:    cfg.ShopAPIBaseURL,
		SigningKey: cfg.ShopAPISigningKey,
		Issuer:     cfg.ShopAPIIssuer,
	})
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize shop client: %w", err)
	}

	productService, err := services.NewProductService(storeConfig, logger.With("component", "product_service"))
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize product service: %w", err)
	}

	var paymentLinker services.PaymentLinker
	if cfg.StripeSecretKey != "" {
		paymentLinker = payments.NewStripeClient(cfg.StripeSecretKey, cfg.BaseURL)
	}

	emailProvider, err := email.NewProvider(email.Config{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.EmailFrom,
	})
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	var orderEmails services.OrderEmailSender
	if emailProvider != nil {
		orderEmails = services.NewStoreOrderEmailSender(emailProvider, storeConfig.Store, cfg.BaseURL)
	}

	orderStore := db.NewOrderStore(database)
	checkoutService := services.NewCheckoutService(
		sessionManager,
		productService,
		shopClient,
		shopClient,
		shopClient,
		orderStore,
		paymentLinker,
		cacheProvider,
		orderEmails,
		logger.With("component", "checkout_service"),
	)
	cachedLookup := services.NewCachedProductLookup(shopClient, cacheProvider, 0, logger.With("component", "product_lookup"))
	orderService := services.NewOrderService(orderStore, checkoutService, cachedLookup, logger.With("component", "order_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		ProductService:  productService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		SessionManager:  sessionManager,
		Logger:          logger,
	})
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:         cfg,
		Logger:         logger,
		DB:             database,
		CacheProvider:  cacheProvider,
		SessionManager: sessionManager,
		Handlers:       h,
		sentryEnabled:  sentryEnabled,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.SessionManager != nil {
		closeSessionManager(a.Logger, a.SessionManager)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.sentryEnabled {
		sentry.Flush(5 * time.Second)
	}
}

func loadCatalog(cfg *config.Config) (*catalog.StoreConfig, error) {
	path := strings.TrimSpace(cfg.CatalogFile)
	if path == "" {
		path = "catalog.yaml"
	}

	storeConfig, err := catalog.NewLoader().ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := catalog.NewValidator().Validate(storeConfig); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return storeConfig, nil
}

func initSentry(cfg *config.Config) (bool, error) {
	if strings.TrimSpace(cfg.SentryDSN) == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		EnableTracing:    true,
		TracesSampleRate: 0.1,
		EnableLogs:       true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

func newLogger(cfg *config.Config, sentryEnabled bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var local slog.Handler
	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		local = slog.NewJSONHandler(os.Stdout, opts)
	default:
		local = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if !sentryEnabled {
		return slog.New(local)
	}

	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(logging.MultiHandler(local, remote))
}

func closeSessionManager(logger *slog.Logger, manager *session.Manager) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil && logger != nil {
		logger.Warn("failed to close session manager", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
