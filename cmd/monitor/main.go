package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"fundwatch/internal/client/angor"
	"fundwatch/internal/client/btcpay"
	"fundwatch/internal/client/nostr"
	"fundwatch/internal/config"
	cronrunner "fundwatch/internal/cron"
	"fundwatch/internal/db"
	"fundwatch/internal/handler"
	"fundwatch/internal/ingest"
	"fundwatch/internal/logger"
	gormrepository "fundwatch/internal/repository/gorm"
	"fundwatch/internal/service"
	"fundwatch/internal/source"

	_ "fundwatch/docs"
)

func main() {
	cfgPath := os.Getenv("FW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	indexerHTTP := &http.Client{Timeout: cfg.Indexer.Timeout}
	indexerClient := angor.NewClient(indexerHTTP, cfg.Indexer.BaseURL)

	var gatewayClient *btcpay.Client
	if cfg.Gateway.BaseURL != "" && cfg.Gateway.APIKey != "" {
		gatewayHTTP := &http.Client{Timeout: cfg.Gateway.Timeout}
		gatewayClient = btcpay.NewClient(gatewayHTTP, cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.StoreID)
	}

	fallbackProvider, err := source.NewFallbackProvider(cfg.Source.FallbackPath)
	if err != nil {
		logger.Fatal("fallback dataset unusable", zap.Error(err))
	}

	var enricher *source.Enricher
	if cfg.Relay.Enabled && len(cfg.Relay.URLs) > 0 {
		enricher = &source.Enricher{
			Relay:       nostr.NewClient(cfg.Relay.URLs, cfg.Relay.FetchTimeout),
			Logger:      logger,
			Concurrency: cfg.Relay.Concurrency,
			Deadline:    cfg.Relay.EnrichDeadline,
		}
	}

	resolver := &source.Resolver{
		Providers: []source.Provider{
			&source.AngorProvider{
				Client:           indexerClient,
				Logger:           logger,
				MaxProjects:      cfg.Indexer.MaxProjects,
				StatsConcurrency: cfg.Indexer.StatsConcurrency,
			},
			fallbackProvider,
		},
		Enricher:    enricher,
		Repo:        store,
		Cache:       source.NewCache(cfg.Source.CacheMaxMB, cfg.Source.CacheTTL),
		Logger:      logger,
		TierTimeout: cfg.Source.TierTimeout,
	}

	if cfg.Webhook.Secret == "" {
		logger.Warn("webhook secret unset; every delivery will be logged unverified")
	}
	ingestor := &ingest.Ingestor{
		Repo:   store,
		Secret: []byte(cfg.Webhook.Secret),
		Logger: logger,
	}

	refresher := &service.SourceRefreshService{
		Repo:     store,
		Resolver: resolver,
		Logger:   logger,
	}
	reconciler := &service.GatewayReconcileService{
		Repo:     store,
		Gateway:  gatewayClient,
		Ingestor: ingestor,
		Config:   cfg.Reconcile,
		Logger:   logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	webhookHandler := &handler.WebhookHandler{Ingestor: ingestor}
	webhookHandler.Register(engine)
	campaignHandler := &handler.CampaignHandler{Repo: store, Resolver: resolver, Refresher: refresher}
	campaignHandler.Register(engine)
	eventHandler := &handler.EventHandler{Repo: store}
	eventHandler.Register(engine)
	analyticsHandler := &handler.AnalyticsHandler{Repo: store, Resolver: resolver}
	analyticsHandler.Register(engine)

	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	baseCtx := ctx

	cronRunner := cronrunner.New(logger, baseCtx)

	// Prefer cron scheduling for the refresh loop; fall back to the service's
	// own ticker when cron is disabled.
	if cfg.Cron.Enabled && cfg.Cron.SourceRefresh != "" {
		_, err := cronRunner.Add("source_refresh", cfg.Cron.SourceRefresh, func(ctx context.Context) {
			if _, err := refresher.RunOnce(ctx); err != nil {
				logger.Warn("cron source refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register source refresh failed", zap.Error(err))
		}
	} else {
		go func() {
			if err := refresher.Run(baseCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("source refresher stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Reconcile.Enabled && gatewayClient != nil {
		if cfg.Cron.Enabled && cfg.Cron.GatewayReconcile != "" {
			_, err := cronRunner.Add("gateway_reconcile", cfg.Cron.GatewayReconcile, func(ctx context.Context) {
				if _, err := reconciler.RunOnce(ctx); err != nil {
					logger.Warn("cron gateway reconcile failed", zap.Error(err))
				}
			})
			if err != nil {
				logger.Warn("cron register gateway reconcile failed", zap.Error(err))
			}
		} else {
			go func() {
				if err := reconciler.Run(baseCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("gateway reconciler stopped", zap.Error(err))
				}
			}()
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	// Best-effort webhook registration so deliveries start flowing without a
	// manual step in the gateway UI.
	if gatewayClient != nil && cfg.Gateway.WebhookURL != "" {
		go func() {
			regCtx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
			defer cancel()
			if err := gatewayClient.EnsureWebhook(regCtx, cfg.Gateway.WebhookURL, cfg.Webhook.Secret); err != nil {
				logger.Warn("gateway webhook registration failed", zap.Error(err))
				return
			}
			logger.Info("gateway webhook registered", zap.String("url", cfg.Gateway.WebhookURL))
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
