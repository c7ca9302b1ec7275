package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnold-commerce/backend/config"
	"github.com/arnold-commerce/backend/controllers"
	"github.com/arnold-commerce/backend/logger"
	"github.com/arnold-commerce/backend/middleware"
	"github.com/arnold-commerce/backend/repository"
	"github.com/arnold-commerce/backend/routes"
	"github.com/arnold-commerce/backend/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Initialize("development")
		logger.Log.Fatal("config load failed", zap.Error(err))
	}
	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	users, sessions, catalog, carts, orders := buildRepositories(cfg)

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := services.NewAuthService(users, sessions, tokenService)
	catalogService := services.NewCatalogService(catalog)
	cartService := services.NewCartService(carts, catalog, cfg.MaxQtyPerItem)
	checkoutService := services.NewCheckoutService(carts, catalog, orders, cfg.CheckoutMaxRetries)
	orderService := services.NewOrderService(orders)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	routes.Register(r, routes.Controllers{
		Auth:    controllers.NewAuthController(authService),
		Product: controllers.NewProductController(catalogService),
		Cart:    controllers.NewCartController(cartService, checkoutService),
		Order:   controllers.NewOrderController(orderService),
	}, authService)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		logger.Log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Log.Info("server stopped")
}

// buildRepositories selects storage backends from configuration. Empty DSNs
// fall back to the in-memory implementations, which keeps local development
// dependency-free; the contracts are identical either way.
func buildRepositories(cfg *config.Config) (
	repository.UserRepository,
	repository.SessionRepository,
	repository.CatalogRepository,
	repository.CartRepository,
	repository.OrderRepository,
) {
	var (
		users    repository.UserRepository    = repository.NewMemoryUserRepository()
		sessions repository.SessionRepository = repository.NewMemorySessionRepository()
		catalog  repository.CatalogRepository = repository.NewMemoryCatalogRepository()
		carts    repository.CartRepository    = repository.NewMemoryCartRepository()
		orders   repository.OrderRepository   = repository.NewMemoryOrderRepository()
	)

	if cfg.DatabaseURL != "" {
		db, err := repository.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatal("postgres connection failed", zap.Error(err))
		}
		users = repository.NewPostgresUserRepository(db)
		sessions = repository.NewPostgresSessionRepository(db)
		orders = repository.NewPostgresOrderRepository(db)
		if cfg.CatalogBackend == "postgres" {
			catalog = repository.NewPostgresCatalogRepository(db)
		}
	} else {
		logger.Log.Warn("DATABASE_URL not set, using in-memory stores; revocations and orders will not survive a restart")
	}

	if cfg.CatalogBackend == "dynamodb" {
		client, err := repository.NewDynamoClient(context.Background())
		if err != nil {
			logger.Log.Fatal("dynamodb client init failed", zap.Error(err))
		}
		catalog = repository.NewDynamoCatalogRepository(client, cfg.DDBTable)
	}

	if cfg.RedisURL != "" {
		client, err := repository.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("redis connection failed", zap.Error(err))
		}
		carts = repository.NewRedisCartRepository(client, cfg.CartTTL)
	}

	return users, sessions, catalog, carts, orders
}
