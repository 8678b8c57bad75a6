package router

import (
	"net/http"
	"time"

	"github.com/blurmagic/backend/config"
	"github.com/blurmagic/backend/handler"
	"github.com/blurmagic/backend/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, paymentHandler *handler.PaymentHandler, entitlementHandler *handler.EntitlementHandler) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSAllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	api := r.Group("/", middleware.RequireAuth(cfg.AuthJWTSecret))
	{
		api.POST("/payments/tron/deposit", paymentHandler.CreateTronDeposit)
		api.POST("/payments/tron/claim", paymentHandler.ClaimTron)
		api.POST("/payments/bsc/claim", paymentHandler.ClaimBSC)
		api.GET("/payments/history", paymentHandler.History)
		api.GET("/payments/status/:chain/:txid", paymentHandler.PaymentStatus)

		api.GET("/entitlements", entitlementHandler.GetEntitlements)
		api.POST("/credits/consume", entitlementHandler.ConsumeCredits)
		api.GET("/credits/ledger", entitlementHandler.Ledger)
	}

	return r
}
