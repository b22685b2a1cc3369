package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bulkbazaar/wholesaleapi/internal/api/middleware"
	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/notify"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/internal/service"
	"github.com/bulkbazaar/wholesaleapi/pkg/errors"
)

// HandleAdminLogin handles POST /v1/admin/login
func HandleAdminLogin(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		user, err := repos.AdminUser.GetByUsername(c.Request.Context(), req.Username)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, expiresAt, err := middleware.IssueAdminToken(cfg.Auth, user.Username)
		if err != nil {
			logger.Error("Failed to issue admin token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": expiresAt.Format(time.RFC3339),
		})
	}
}

// HandleCreateProduct handles POST /v1/admin/products
func HandleCreateProduct(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		productService := service.NewProductService(repos, pricingCache, logger)
		product, err := productService.CreateProduct(c.Request.Context(), req)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, buildProductResponse(product))
	}
}

// HandleUpdateProduct handles PUT /v1/admin/products/:id
func HandleUpdateProduct(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		var req service.ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		productService := service.NewProductService(repos, pricingCache, logger)
		product, err := productService.UpdateProduct(c.Request.Context(), productID, req)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, buildProductResponse(product))
	}
}

// HandleDeactivateProduct handles POST /v1/admin/products/:id/deactivate.
// Deactivation also removes the product from every open cart.
func HandleDeactivateProduct(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		productService := service.NewProductService(repos, pricingCache, logger)
		removed, err := productService.DeactivateProduct(c.Request.Context(), productID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                 productID.String(),
			"is_active":          false,
			"cart_items_removed": removed,
		})
	}
}

// HandleActivateProduct handles POST /v1/admin/products/:id/activate
func HandleActivateProduct(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		productService := service.NewProductService(repos, pricingCache, logger)
		if err := productService.ActivateProduct(c.Request.Context(), productID); err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":        productID.String(),
			"is_active": true,
		})
	}
}

// HandleAdminListOrders handles GET /v1/admin/orders
func HandleAdminListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parseListParams(c)

		var orders []*domain.Order
		var err error

		if statusParam := c.Query("status"); statusParam != "" {
			status := domain.OrderStatus(statusParam)
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			orders, err = repos.Order.ListByStatus(c.Request.Context(), status, limit, offset)
		} else {
			orders, err = repos.Order.ListByStatus(c.Request.Context(), "", limit, offset)
		}
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		summaries := make([]gin.H, len(orders))
		for i, order := range orders {
			summaries[i] = gin.H{
				"id":             order.ID.String(),
				"retailer_id":    order.RetailerID.String(),
				"status":         order.Status,
				"payment_method": order.PaymentMethod,
				"payment_status": order.PaymentStatus,
				"total":          order.Total.StringFixed(2),
				"amount_paid":    order.AmountPaid.StringFixed(2),
				"amount_pending": order.Total.Sub(order.AmountPaid).StringFixed(2),
				"created_at":     order.CreatedAt.Format(time.RFC3339),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": summaries,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// HandleAdminGetOrder handles GET /v1/admin/orders/:id
func HandleAdminGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := repos.Order.GetByID(c.Request.Context(), orderID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		lines, err := repos.Order.GetLines(c.Request.Context(), orderID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, buildOrderResponse(order, lines))
	}
}

// HandleEditOrder handles PUT /v1/admin/orders/:id
func HandleEditOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req service.OrderEditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, charges, notifier, logger)
		order, err := orderService.EditOrder(c.Request.Context(), orderID, req)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		lines, err := repos.Order.GetLines(c.Request.Context(), orderID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, buildOrderResponse(order, lines))
	}
}

func orderActionHandler(repos *repository.Repositories, logger *zap.Logger, act func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := act(c, orderID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		lines, err := repos.Order.GetLines(c.Request.Context(), orderID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, buildOrderResponse(order, lines))
	}
}

// HandleConfirmOrder handles POST /v1/admin/orders/:id/confirm
func HandleConfirmOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	orderService := service.NewOrderService(repos, charges, notifier, logger)
	return orderActionHandler(repos, logger, func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error) {
		return orderService.ConfirmOrder(c.Request.Context(), orderID)
	})
}

// HandleRejectOrder handles POST /v1/admin/orders/:id/reject
func HandleRejectOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	orderService := service.NewOrderService(repos, charges, notifier, logger)
	return orderActionHandler(repos, logger, func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error) {
		var req struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, &errors.ErrValidation{Field: "body", Message: err.Error()}
		}
		return orderService.RejectOrder(c.Request.Context(), orderID, req.Reason)
	})
}

// HandleShipOrder handles POST /v1/admin/orders/:id/ship
func HandleShipOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	orderService := service.NewOrderService(repos, charges, notifier, logger)
	return orderActionHandler(repos, logger, func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error) {
		var req struct {
			Carrier        string `json:"carrier" binding:"required"`
			TrackingNumber string `json:"tracking_number" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, &errors.ErrValidation{Field: "body", Message: err.Error()}
		}
		return orderService.ShipOrder(c.Request.Context(), orderID, req.Carrier, req.TrackingNumber)
	})
}

// HandleDeliverOrder handles POST /v1/admin/orders/:id/deliver
func HandleDeliverOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	orderService := service.NewOrderService(repos, charges, notifier, logger)
	return orderActionHandler(repos, logger, func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error) {
		return orderService.DeliverOrder(c.Request.Context(), orderID)
	})
}

// HandleCancelOrder handles POST /v1/admin/orders/:id/cancel
func HandleCancelOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	orderService := service.NewOrderService(repos, charges, notifier, logger)
	return orderActionHandler(repos, logger, func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error) {
		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&req)
		return orderService.CancelOrder(c.Request.Context(), orderID, req.Reason)
	})
}

// HandleRecordPayment handles POST /v1/admin/orders/:id/payments
func HandleRecordPayment(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	orderService := service.NewOrderService(repos, charges, notifier, logger)
	return orderActionHandler(repos, logger, func(c *gin.Context, orderID uuid.UUID) (*domain.Order, error) {
		var req service.RecordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, &errors.ErrValidation{Field: "body", Message: err.Error()}
		}
		return orderService.RecordPayment(c.Request.Context(), orderID, req)
	})
}

// HandleListOrderEvents handles GET /v1/admin/orders/:id/events
func HandleListOrderEvents(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		events, err := repos.OrderEvent.ListByOrderID(c.Request.Context(), orderID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		views := make([]gin.H, len(events))
		for i, event := range events {
			views[i] = gin.H{
				"id":         event.ID.String(),
				"event_type": event.EventType,
				"event_data": event.EventData,
				"created_at": event.CreatedAt.Format(time.RFC3339),
			}
		}

		c.JSON(http.StatusOK, gin.H{"events": views})
	}
}

// HandleAdminListProducts handles GET /v1/admin/products. Unlike the retailer
// catalog it includes inactive products.
func HandleAdminListProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parseListParams(c)

		products, err := repos.Product.List(c.Request.Context(), false, limit, offset)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		responses := make([]ProductResponse, len(products))
		for i, product := range products {
			responses[i] = buildProductResponse(product)
		}

		c.JSON(http.StatusOK, gin.H{
			"products": responses,
			"limit":    limit,
			"offset":   offset,
		})
	}
}
