package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/packfit/server/internal/module/contract"
	contractentity "github.com/packfit/server/internal/module/contract/entity"
	"github.com/packfit/server/internal/module/gateway"
	"github.com/packfit/server/internal/module/webhook"
	webhookentity "github.com/packfit/server/internal/module/webhook/entity"
	"github.com/packfit/server/internal/shared/cache"
	"github.com/packfit/server/internal/shared/config"
	"github.com/packfit/server/internal/shared/database"
	"github.com/packfit/server/internal/shared/logger"
	"github.com/packfit/server/internal/shared/metrics"
	"github.com/packfit/server/internal/shared/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires the ingestion pipeline together: configuration, storage,
// gateway client, processing, reconciliation, and the HTTP surface.
type App struct {
	config  *config.Config
	db      *gorm.DB
	redis   redis.UniversalClient
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics.Metrics

	reconciler *webhook.Reconciler
	stopCtx    context.CancelFunc
}

// New creates the application. Everything is wired here by hand; there is
// little enough of it that a DI framework would only add indirection.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrate(
		&contractentity.ContractEntity{},
		&contractentity.EnrollmentEntity{},
		&webhookentity.WebhookEventEntity{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// Redis is optional: without it contract lookups always hit the
	// database.
	var redisClient redis.UniversalClient
	if cfg.Redis.Address != "" {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		}
	}

	m := metrics.New()

	gatewayClient, err := gateway.NewMercadoPagoClient(cfg.Gateway.AccessToken, cfg.Gateway.Timeout, log)
	if err != nil {
		return nil, fmt.Errorf("init gateway client: %w", err)
	}
	verifier := gateway.NewSignatureVerifier(cfg.Gateway.WebhookSecret)

	contractRepo := contract.NewRepository(db)
	resolver := contract.NewResolver(contractRepo, redisClient, log)
	activator := contract.NewActivator(contractRepo, log)

	webhookRepo := webhook.NewRepository(db)
	processor := webhook.NewProcessor(webhookRepo, gatewayClient, resolver, activator, cfg.Reconciler.MaxAttempts, m, log)
	service := webhook.NewService(webhookRepo, processor, cfg.Reconciler.SyncWait, m, log)
	reconciler := webhook.NewReconciler(webhookRepo, processor, cfg.Reconciler.BatchSize, cfg.Reconciler.Workers, cfg.Reconciler.Interval, m, log)

	app := &App{
		config:     cfg,
		db:         db,
		redis:      redisClient,
		logger:     log,
		metrics:    m,
		reconciler: reconciler,
	}
	app.router = app.setupRouter(webhook.NewHandler(service, verifier, log))

	ctx, cancel := context.WithCancel(context.Background())
	app.stopCtx = cancel
	reconciler.Start(ctx)

	return app, nil
}

func (a *App) setupRouter(webhookHandler *webhook.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(cors.Default())

	r.GET("/healthz", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{})))

	webhookHandler.RegisterRoutes(r.Group("/"))

	return r
}

// health reports liveness of the process and its database connection.
func (a *App) health(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop shuts down background work and releases connections.
func (a *App) Stop() {
	a.stopCtx()
	a.reconciler.Stop()

	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
