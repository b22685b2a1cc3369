package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/pricing"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/price-check/main.go <sku> <quantity>")
		fmt.Println("Example: go run cmd/price-check/main.go \"KRT-PLT-200\" 150")
		os.Exit(1)
	}

	targetSKU := os.Args[1]
	quantity, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid quantity %q: %v\n", os.Args[2], err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	product, err := repos.Product.GetBySKU(context.Background(), targetSKU)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to look up SKU %q: %v\n", targetSKU, err)
		os.Exit(1)
	}

	unitPrice, tier, err := pricing.ResolveUnitPrice(product, quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve price: %v\n", err)
		os.Exit(1)
	}

	lineTotal, err := pricing.LineTotal(unitPrice, quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute line total: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Product: %s (%s)\n", product.Name, product.SKU)
	fmt.Printf("Unit set: %d pieces\n", product.UnitSet)
	fmt.Printf("Quantity: %d pieces\n", quantity)
	if tier != nil {
		if tier.MaximumSets > 0 {
			fmt.Printf("Tier applied: %d-%d sets @ %s/piece\n", tier.MinimumSets, tier.MaximumSets, tier.SellingPricePerSet.StringFixed(2))
		} else {
			fmt.Printf("Tier applied: %d+ sets @ %s/piece\n", tier.MinimumSets, tier.SellingPricePerSet.StringFixed(2))
		}
	} else {
		fmt.Printf("Tier applied: none (per-piece price %s)\n", product.PerPiecePrice.StringFixed(2))
	}
	fmt.Printf("Unit price: %s\n", unitPrice.StringFixed(2))
	fmt.Printf("Line total: %s\n", lineTotal.StringFixed(2))
	fmt.Printf("Stock available: %d units\n", product.StockUnits)
}
