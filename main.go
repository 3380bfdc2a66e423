package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"branch-order-api/basket"
	"branch-order-api/config"
	"branch-order-api/directory"
	"branch-order-api/handlers"
	"branch-order-api/ledger"
	"branch-order-api/notify"
	"branch-order-api/payment"
	"branch-order-api/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("BOA_CONFIG"))
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	logger.Info("Database connected and migrated")

	// Basket store: redis when configured, in-process otherwise.
	var basketStore basket.Store
	if cfg.Redis.Addr != "" {
		redisStore := basket.NewRedisStore(cfg.Redis)
		if err := redisStore.Ping(context.Background()); err != nil {
			logger.Warn("Redis connection failed", zap.Error(err))
		} else {
			logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
		}
		defer redisStore.Close()
		basketStore = redisStore
	} else {
		logger.Info("No redis address configured, using in-memory basket store")
		basketStore = basket.NewMemoryStore()
	}

	provider := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	payments := payment.NewService(provider, cfg.Stripe.Timeout, logger)

	hub := notify.NewHub(logger)
	led := ledger.New(db, logger)
	dir := directory.New(db)
	h := handlers.New(db, led, dir, basketStore, payments, hub, []byte(cfg.JWT.Secret), logger)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Branch Order API",
			"version": "1.0.0",
		})
	})

	routes.SetupRoutes(r, h, []byte(cfg.JWT.Secret))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
