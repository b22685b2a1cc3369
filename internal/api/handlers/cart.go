package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/api/middleware"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/internal/service"
)

// HandleGetCart handles GET /v1/cart
func HandleGetCart(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cartService := service.NewCartService(repos, logger)
		view, err := cartService.GetCartView(c.Request.Context(), retailer.ID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleSetCartItem handles POST /v1/cart/items
func HandleSetCartItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		cartService := service.NewCartService(repos, logger)
		if _, err := cartService.SetItem(c.Request.Context(), retailer.ID, productID, req.Quantity); err != nil {
			handleServiceError(c, logger, err)
			return
		}

		view, err := cartService.GetCartView(c.Request.Context(), retailer.ID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleUpdateCartItem handles PATCH /v1/cart/items/:productId
func HandleUpdateCartItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		var req struct {
			Quantity int `json:"quantity" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cartService := service.NewCartService(repos, logger)
		if _, err := cartService.SetItem(c.Request.Context(), retailer.ID, productID, req.Quantity); err != nil {
			handleServiceError(c, logger, err)
			return
		}

		view, err := cartService.GetCartView(c.Request.Context(), retailer.ID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/items/:productId
func HandleRemoveCartItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		retailer, ok := middleware.GetRetailerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		cartService := service.NewCartService(repos, logger)
		if err := cartService.RemoveItem(c.Request.Context(), retailer.ID, productID); err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
