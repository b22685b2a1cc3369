package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository"
)

// ProductResponse represents a product in catalog responses
type ProductResponse struct {
	ID             string         `json:"id"`
	SKU            string         `json:"sku"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Category       string         `json:"category,omitempty"`
	UnitSet        int            `json:"unit_set"`
	PerPiecePrice  string         `json:"per_piece_price"`
	MRP            string         `json:"mrp"`
	GSTRatePercent string         `json:"gst_rate_percent"`
	StockUnits     int            `json:"stock_units"`
	IsActive       bool           `json:"is_active"`
	BulkTiers      []TierResponse `json:"bulk_tiers"`
}

// TierResponse represents one bulk tier in product responses
type TierResponse struct {
	MinimumSets        int    `json:"minimum_sets"`
	MaximumSets        int    `json:"maximum_sets,omitempty"`
	SellingPricePerSet string `json:"selling_price_per_set"`
	DiscountFromMRP    string `json:"discount_from_mrp"`
}

func buildProductResponse(product *domain.Product) ProductResponse {
	tiers := make([]TierResponse, len(product.BulkTiers))
	for i, tier := range product.BulkTiers {
		tiers[i] = TierResponse{
			MinimumSets:        tier.MinimumSets,
			MaximumSets:        tier.MaximumSets,
			SellingPricePerSet: tier.SellingPricePerSet.StringFixed(2),
			DiscountFromMRP:    tier.DiscountFromMRP.StringFixed(2),
		}
	}

	return ProductResponse{
		ID:             product.ID.String(),
		SKU:            product.SKU,
		Name:           product.Name,
		Description:    product.Description,
		Category:       product.Category,
		UnitSet:        product.UnitSet,
		PerPiecePrice:  product.PerPiecePrice.StringFixed(2),
		MRP:            product.MRP.StringFixed(2),
		GSTRatePercent: product.GSTRatePercent.String(),
		StockUnits:     product.StockUnits,
		IsActive:       product.IsActive,
		BulkTiers:      tiers,
	}
}

func parseListParams(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// HandleListProducts handles GET /v1/products
func HandleListProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parseListParams(c)

		products, err := repos.Product.List(c.Request.Context(), true, limit, offset)
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

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		product, err := repos.Product.GetByID(c.Request.Context(), productID)
		if err != nil {
			handleServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, buildProductResponse(product))
	}
}
