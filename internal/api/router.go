package api

import (
	"net/http" // Handler type for metrics
	"slices"   // Origin lookup
	"time"     // CORS max age

	"ton_topup/internal/account"    // Account service
	"ton_topup/internal/config"     // Application configuration
	"ton_topup/internal/middleware" // Custom middleware
	"ton_topup/internal/payment"    // Payment lifecycle
	"ton_topup/internal/utils"      // Role names

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/sirupsen/logrus"  // Logging library
)

// NewRouter wires middleware and routes. metrics may be nil.
func NewRouter(cfg *config.Config, pay *payment.Service, acct *account.Service, log logrus.FieldLogger, metrics http.Handler) *gin.Engine {
	r := gin.New()                                       // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestLogger(log)) // Recover panics, log requests
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))         // WebApp runs on another origin

	apiGroup := r.Group("/api")
	apiGroup.GET("/user", GetUserHandler(acct))                 // Profile and balances
	apiGroup.GET("/operations", GetOperationsHandler(acct))     // Operation history
	apiGroup.POST("/payment/create", CreatePaymentHandler(pay)) // Create payment
	apiGroup.GET("/payment/check", CheckPaymentHandler(pay))    // Payment status
	// Confirmation is gated by the observer token when a secret is configured
	apiGroup.POST("/payment/confirm",
		middleware.JWTAuthMiddleware(cfg.ObserverSecret),
		middleware.RequireRole(cfg.ObserverSecret, utils.RoleObserver),
		ConfirmPaymentHandler(pay, acct),
	)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics)) // Prometheus scrape endpoint
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}
