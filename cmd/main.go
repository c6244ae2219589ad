package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tradeboard/pointhub/internal/config"
	"tradeboard/pointhub/internal/handler"
	"tradeboard/pointhub/internal/jobs"
	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
	"tradeboard/pointhub/internal/service"
	jwtpkg "tradeboard/pointhub/pkg/jwt"
)

func main() {
	// 1. Load configuration
	configPath := os.Getenv("POINTHUB_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Connect to the database
	db, err := config.NewDB(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize lock store (Redis or in-memory)
	var lockStore repository.LockStore
	switch cfg.Lock.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		lockStore = repository.NewRedisLockStore(redisClient)
		logger.Info("using Redis lock store")
	default:
		lockStore = repository.NewMemoryLockStore()
		logger.Info("using in-memory lock store")
	}

	// 6. Initialize services
	store := repository.NewPGStore(db)
	ledgerService := service.NewLedgerService(store)
	viewGateService := service.NewViewGateService(store, ledgerService, service.ViewGateOptions{
		ViewCost:                    cfg.Points.ViewCost,
		KeepDebitOnLateQuotaFailure: cfg.Points.KeepDebitOnLateQuotaFailure,
	})
	listingService := service.NewListingService(store, ledgerService, service.ListingOptions{
		DefaultViewLimit: cfg.Listing.DefaultViewLimit,
		MaxViewLimit:     cfg.Listing.MaxViewLimit,
		Lifetime:         cfg.Listing.Lifetime,
		StaleAge:         cfg.Listing.StaleAge,
		SweepBatchSize:   cfg.Listing.SweepBatchSize,
	}, logger)
	referralService := service.NewReferralService(store, ledgerService, service.ReferralRewards{
		Inviter: cfg.Points.InviterReward,
		Invitee: cfg.Points.InviteeReward,
	})
	accountService := service.NewAccountService(store, ledgerService, referralService, cfg.Points.SignupBonus, logger)
	rechargeService := service.NewRechargeService(store, ledgerService)

	// 7. Initialize JWT manager for operator routes
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if cfg.JWT.SigningKey == "" {
		logger.Warn("jwt.signing_key is empty, admin routes will reject every token")
	}

	// 8. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager,
		handler.NewContactHandler(viewGateService),
		handler.NewListingHandler(listingService, viewGateService),
		handler.NewReferralHandler(referralService),
		handler.NewUserHandler(accountService, ledgerService),
		handler.NewRechargeHandler(rechargeService),
		handler.NewAdminHandler(listingService, rechargeService, ledgerService),
	)

	// 9. Start the scheduled sweeper
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if cfg.Sweeper.Enabled {
		sweeper := jobs.NewSweeper(listingService, lockStore, cfg.Sweeper.Interval, cfg.Sweeper.LeaseTTL, logger)
		go sweeper.Run(ctx)
	}

	// 10. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
