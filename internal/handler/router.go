package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradeboard/pointhub/internal/config"
	"tradeboard/pointhub/internal/handler/middleware"
	jwtpkg "tradeboard/pointhub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	contactHandler *ContactHandler,
	listingHandler *ListingHandler,
	referralHandler *ReferralHandler,
	userHandler *UserHandler,
	rechargeHandler *RechargeHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/contacts/reveal", contactHandler.Reveal)

		api.POST("/listings/publish", listingHandler.Publish)
		api.POST("/listings/withdraw", listingHandler.Withdraw)
		api.POST("/listings/detail", listingHandler.Detail)

		api.POST("/referrals/process", referralHandler.Process)
		api.POST("/referrals/info", referralHandler.Info)

		api.POST("/users/register", userHandler.Register)
		api.POST("/users/profile", userHandler.Profile)
		api.POST("/points/history", userHandler.History)

		api.POST("/recharges/submit", rechargeHandler.Submit)
	}

	// Operator routes (JWT + admin check)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
	{
		admin.POST("/sweep/expired", adminHandler.SweepExpired)
		admin.POST("/sweep/stale", adminHandler.SweepStale)
		admin.POST("/recharges/pending", adminHandler.PendingRecharges)
		admin.POST("/recharges/review", adminHandler.ReviewRecharge)
		admin.POST("/ledger/audit", adminHandler.AuditLedger)
	}

	return r
}
