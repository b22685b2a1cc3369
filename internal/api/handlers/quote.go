package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
	"github.com/bulkbazaar/wholesaleapi/internal/service"
)

// HandleQuote handles POST /v1/quotes
func HandleQuote(repos *repository.Repositories, pricingCache cache.PricingCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		quoteService := service.NewQuoteService(repos, pricingCache, logger)
		quote, err := quoteService.QuoteProduct(c.Request.Context(), req)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}
