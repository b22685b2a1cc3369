package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/api/middleware"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/notify"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/internal/service"
)

// OrderResponse represents an order with its lines
type OrderResponse struct {
	ID              string                 `json:"id"`
	Status          domain.OrderStatus     `json:"status"`
	PaymentMethod   domain.PaymentMethod   `json:"payment_method"`
	PaymentStatus   domain.PaymentStatus   `json:"payment_status"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	Subtotal        string                 `json:"subtotal"`
	TaxTotal        string                 `json:"tax_total"`
	DeliveryCharge  string                 `json:"delivery_charge"`
	CODCharge       string                 `json:"cod_charge"`
	Discount        string                 `json:"discount"`
	Total           string                 `json:"total"`
	AmountPaid      string                 `json:"amount_paid"`
	AmountPending   string                 `json:"amount_pending"`
	RejectionReason *string                `json:"rejection_reason,omitempty"`
	TrackingCarrier *string                `json:"tracking_carrier,omitempty"`
	TrackingNumber  *string                `json:"tracking_number,omitempty"`
	Lines           []OrderLineResponse    `json:"lines"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

// OrderLineResponse represents one frozen order line
type OrderLineResponse struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	GSTRatePercent string `json:"gst_rate_percent"`
	LineTotal      string `json:"line_total"`
}

func buildOrderResponse(order *domain.Order, lines []*domain.OrderLine) OrderResponse {
	lineResponses := make([]OrderLineResponse, len(lines))
	for i, line := range lines {
		lineResponses[i] = OrderLineResponse{
			ProductID:      line.ProductID.String(),
			SKU:            line.SKU,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice.StringFixed(2),
			GSTRatePercent: line.GSTRatePercent.String(),
			LineTotal:      line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2).StringFixed(2),
		}
	}

	return OrderResponse{
		ID:              order.ID.String(),
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		ShippingAddress: order.ShippingAddress,
		Subtotal:        order.Subtotal.StringFixed(2),
		TaxTotal:        order.TaxTotal.StringFixed(2),
		DeliveryCharge:  order.DeliveryCharge.StringFixed(2),
		CODCharge:       order.CODCharge.StringFixed(2),
		Discount:        order.Discount.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		AmountPaid:      order.AmountPaid.StringFixed(2),
		AmountPending:   order.Total.Sub(order.AmountPaid).StringFixed(2),
		RejectionReason: order.RejectionReason,
		TrackingCarrier: order.TrackingCarrier,
		TrackingNumber:  order.TrackingNumber,
		Lines:           lineResponses,
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       order.UpdatedAt.Format(time.RFC3339),
	}
}

// HandlePlaceOrder handles POST /v1/orders
func HandlePlaceOrder(repos *repository.Repositories, charges service.ChargePolicy, notifier *notify.WebhookClient, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Replay of a previously seen Idempotency-Key returns the original order
		_, _, existingOrderID, isExisting := middleware.GetIdempotencyInfo(c)
		if isExisting {
			orderID, err := uuid.Parse(existingOrderID)
			if err != nil {
				logger.Error("Invalid existing order ID from idempotency", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
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
			return
		}

		var req service.PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, charges, notifier, logger)
		order, err := orderService.PlaceOrder(c.Request.Context(), retailer, req)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		idempotencyKey, requestHash, _, _ := middleware.GetIdempotencyInfo(c)
		if idempotencyKey != "" {
			record := &domain.IdempotencyKey{
				Key:         idempotencyKey,
				RetailerID:  retailer.ID,
				OrderID:     order.ID,
				RequestHash: requestHash,
			}
			if err := repos.IdempotencyKey.Create(c.Request.Context(), record); err != nil {
				logger.Warn("Failed to store idempotency key", zap.Error(err))
				// Don't fail the request if idempotency storage fails
			}
		}

		lines, err := repos.Order.GetLines(c.Request.Context(), order.ID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, buildOrderResponse(order, lines))
	}
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := parseListParams(c)

		orders, err := repos.Order.ListByRetailerID(c.Request.Context(), retailer.ID, limit, offset)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		summaries := make([]gin.H, len(orders))
		for i, order := range orders {
			summaries[i] = gin.H{
				"id":             order.ID.String(),
				"status":         order.Status,
				"payment_status": order.PaymentStatus,
				"total":          order.Total.StringFixed(2),
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

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

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

		if order.RetailerID != retailer.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
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
