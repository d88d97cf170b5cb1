package main

import (
	"context"                    // Shutdown context
	"errors"                     // Error matching
	"net/http"                   // HTTP server
	"os"                         // Signals
	"os/signal"                  // Signal notification
	"syscall"                    // SIGTERM
	"time"                       // Shutdown timeout
	"ton_topup/internal/account" // Account service
	"ton_topup/internal/api"     // Custom package for API handlers
	"ton_topup/internal/bot"     // Telegram front-end
	"ton_topup/internal/config"  // Custom package for configuration
	"ton_topup/internal/db"      // Database connection
	"ton_topup/internal/ledger"  // Payment ledger
	"ton_topup/internal/metrics" // Prometheus counters
	"ton_topup/internal/payment" // Payment lifecycle

	"github.com/gin-gonic/gin"                                    // Gin web framework
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5" // Telegram Bot API
	"github.com/prometheus/client_golang/prometheus/promhttp"     // Metrics handler
	"github.com/redis/go-redis/v9"                                // Redis client
	"github.com/sirupsen/logrus"                                  // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine-readable logs in production
	}
	log := logrus.StandardLogger()

	if cfg.WalletAddress == "" {
		logrus.Fatal("TON_WALLET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database and initialize the schema before serving
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	store := ledger.New(gdb)
	if err := store.Init(ctx); err != nil {
		logrus.Fatalf("failed to initialize schema: %v", err)
	}

	// Setup Redis client, optional
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	reg := metrics.NewRegistry() // Runtime and process collectors
	m := metrics.New(reg)

	pay := payment.NewService(store, payment.Config{
		WalletAddress: cfg.WalletAddress,
		MemoRetries:   cfg.MemoRetries,
	}, payment.WithLogger(log), payment.WithObserver(m))
	acct := account.NewService(store, redisClient, cfg.CacheTTL, cfg.HistoryLimit, log)

	if cfg.ObserverSecret == "" {
		logrus.Warn("OBSERVER_SECRET is empty, /api/payment/confirm accepts unauthenticated memos")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(cfg, pay, acct, log, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Telegram bot, optional
	if cfg.BotToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logrus.Fatalf("bot init: %v", err)
		}
		h := bot.NewHandler(botAPI, acct, cfg.WebAppURL, log)
		go h.Run(ctx, botAPI)
	}

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("shutdown: %v", err)
	}
}
