package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/api/handlers"
	"github.com/bulkbazaar/wholesaleapi/internal/api/middleware"
	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/notify"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, pricingCache cache.PricingCache, notifier *notify.WebhookClient, charges service.ChargePolicy, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Retailer routes (API key authentication)
		retailerRoutes := v1.Group("")
		retailerRoutes.Use(middleware.RetailerAuth(repos, logger))
		{
			retailerRoutes.GET("/products", handlers.HandleListProducts(repos, logger))
			retailerRoutes.GET("/products/:id", handlers.HandleGetProduct(repos, logger))
			retailerRoutes.POST("/quotes", handlers.HandleQuote(repos, pricingCache, logger))

			retailerRoutes.GET("/cart", handlers.HandleGetCart(repos, logger))
			retailerRoutes.POST("/cart/items", handlers.HandleSetCartItem(repos, logger))
			retailerRoutes.PATCH("/cart/items/:productId", handlers.HandleUpdateCartItem(repos, logger))
			retailerRoutes.DELETE("/cart/items/:productId", handlers.HandleRemoveCartItem(repos, logger))

			retailerRoutes.POST("/orders",
				middleware.Idempotency(repos, logger),
				handlers.HandlePlaceOrder(repos, charges, notifier, logger))
			retailerRoutes.GET("/orders", handlers.HandleListOrders(repos, logger))
			retailerRoutes.GET("/orders/:id", handlers.HandleGetOrder(repos, logger))
		}

		// Admin routes (JWT authentication); login itself is unauthenticated
		v1.POST("/admin/login", handlers.HandleAdminLogin(cfg, repos, logger))

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminAuth(cfg.Auth, logger))
		{
			adminRoutes.GET("/products", handlers.HandleAdminListProducts(repos, logger))
			adminRoutes.POST("/products", handlers.HandleCreateProduct(repos, pricingCache, logger))
			adminRoutes.PUT("/products/:id", handlers.HandleUpdateProduct(repos, pricingCache, logger))
			adminRoutes.POST("/products/:id/deactivate", handlers.HandleDeactivateProduct(repos, pricingCache, logger))
			adminRoutes.POST("/products/:id/activate", handlers.HandleActivateProduct(repos, pricingCache, logger))

			adminRoutes.GET("/orders", handlers.HandleAdminListOrders(repos, logger))
			adminRoutes.GET("/orders/:id", handlers.HandleAdminGetOrder(repos, logger))
			adminRoutes.PUT("/orders/:id", handlers.HandleEditOrder(repos, charges, notifier, logger))
			adminRoutes.GET("/orders/:id/events", handlers.HandleListOrderEvents(repos, logger))
			adminRoutes.POST("/orders/:id/confirm", handlers.HandleConfirmOrder(repos, charges, notifier, logger))
			adminRoutes.POST("/orders/:id/reject", handlers.HandleRejectOrder(repos, charges, notifier, logger))
			adminRoutes.POST("/orders/:id/ship", handlers.HandleShipOrder(repos, charges, notifier, logger))
			adminRoutes.POST("/orders/:id/deliver", handlers.HandleDeliverOrder(repos, charges, notifier, logger))
			adminRoutes.POST("/orders/:id/cancel", handlers.HandleCancelOrder(repos, charges, notifier, logger))
			adminRoutes.POST("/orders/:id/payments", handlers.HandleRecordPayment(repos, charges, notifier, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
