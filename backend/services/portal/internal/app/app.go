package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "utilitypay/backend/libs/redis"
	"utilitypay/backend/services/portal/internal/clients"
	"utilitypay/backend/services/portal/internal/config"
	httpserver "utilitypay/backend/services/portal/internal/http"
	"utilitypay/backend/services/portal/internal/http/handlers"
	"utilitypay/backend/services/portal/internal/http/middleware"
	redisstore "utilitypay/backend/services/portal/internal/redis"
	"utilitypay/backend/services/portal/internal/service"
	"utilitypay/backend/services/portal/internal/web"
)

// App wires portal dependencies.
type App struct {
	server      *httpserver.Server
	redisClient *goredis.Client
	logger      *zap.Logger
}

// New constructs application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	var (
		ledger      service.SubmissionLedger
		redisClient *goredis.Client
	)
	if cfg.RedisEnabled() {
		redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		ledger = redisstore.NewLedger(redisClient, cfg.SubmissionTTL())
		logger.Info("submission ledger in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		ledger = service.NewMemoryLedger(cfg.SubmissionTTL())
	}

	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())
	billingClient := clients.NewBillingClient(cfg.API.BaseURL, httpClient)

	enrollmentService := service.NewEnrollmentService(billingClient, ledger, logger)
	receiptService := service.NewReceiptService(cfg.Receipt.DateLayout)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Pages:      handlers.NewPageHandlers(renderer, logger),
		Enrollment: handlers.NewEnrollmentHandlers(enrollmentService, renderer, logger),
		Receipt:    handlers.NewReceiptHandlers(receiptService, renderer, logger),
		Health:     handlers.NewHealthHandler(),
		Static:     web.StaticHandler(),
	}, middleware.SessionMiddleware(middleware.SessionConfig{
		Secret:        cfg.Session.Secret,
		CookieName:    cfg.Session.CookieName,
		DefaultUserID: cfg.Session.DefaultUserID,
	}))

	server := httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	logger.Info("portal configured", zap.String("api_base_url", cfg.API.BaseURL))

	return &App{
		server:      server,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
