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
	"go.uber.org/zap"

	"unisync/internal/config"
	"unisync/internal/creds"
	cronrunner "unisync/internal/cron"
	"unisync/internal/db"
	"unisync/internal/handler"
	"unisync/internal/logger"
	"unisync/internal/provider/registry"
	gormrepository "unisync/internal/repository/gorm"
	"unisync/internal/service"
	"unisync/internal/warehouse"
)

func main() {
	cfgPath := os.Getenv("US_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("US_ENV_ONLY"); envOnlyRaw != "" {
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
	dest := warehouse.NewDestination(dbConn.Gorm, logger)

	credSource := buildCredSource(cfg)
	adapters := &registry.Builder{
		Creds:    credSource,
		Timeout:  cfg.Sync.ProviderTimeout,
		BaseURLs: cfg.Providers.BaseURLs,
		Logger:   logger,
	}

	syncService := &service.SyncService{
		Repo:              store,
		Dest:              dest,
		Adapters:          adapters,
		Logger:            logger,
		ApplicationID:     cfg.App.ApplicationID,
		PageSize:          cfg.Sync.PageSize,
		MaxPagesPerObject: cfg.Sync.MaxPagesPerObject,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.RequireBearerMiddleware(cfg.App.APIToken))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Service: syncService, Store: store, Logger: logger}
	syncHandler.Register(engine)
	unifiedHandler := &handler.UnifiedHandler{Adapters: adapters, Logger: logger}
	unifiedHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && len(cfg.Connections) > 0 {
		_, err = cronRunner.Add(cfg.Cron.Schedule, "connection-sync", func(ctx context.Context) {
			for _, conn := range cfg.Connections {
				run, err := syncService.SyncConnection(ctx, service.SyncEvent{
					CustomerID:        conn.CustomerID,
					ProviderName:      conn.ProviderName,
					DestinationSchema: cfg.Sync.DestinationSchema,
				})
				if err != nil {
					logger.Warn("cron sync failed",
						zap.String("customer_id", conn.CustomerID),
						zap.String("provider", conn.ProviderName),
						zap.Error(err))
					continue
				}
				logger.Info("cron sync ok",
					zap.String("customer_id", conn.CustomerID),
					zap.String("provider", conn.ProviderName),
					zap.String("run_id", run.ID))
			}
		})
		if err != nil {
			logger.Warn("cron register sync failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

// buildCredSource prefers the vault; without one, connections come from the
// static config list.
func buildCredSource(cfg config.Config) creds.Source {
	if strings.TrimSpace(cfg.Vault.BaseURL) != "" {
		return &creds.VaultClient{
			BaseURL: cfg.Vault.BaseURL,
			APIKey:  cfg.Vault.APIKey,
			HTTP:    &http.Client{Timeout: cfg.Vault.Timeout},
		}
	}
	static := creds.NewStaticSource()
	for _, conn := range cfg.Connections {
		static.Add(conn.CustomerID, conn.ProviderName, creds.Credentials{
			AccessToken: conn.AccessToken,
			InstanceURL: conn.InstanceURL,
		})
	}
	return static
}
