package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/domain"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-retailer/main.go <retailer-name> <api-key> [webhook-url]")
		fmt.Println("Example: go run cmd/create-retailer/main.go \"Sharma Traders\" \"sharma-api-key-12345\"")
		os.Exit(1)
	}

	retailerName := os.Args[1]
	apiKey := os.Args[2]
	var webhookURL *string
	if len(os.Args) > 3 {
		webhookURL = &os.Args[3]
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

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	// Create retailer
	retailer := &domain.Retailer{
		Name:       retailerName,
		APIKeyHash: string(apiKeyHash),
		WebhookURL: webhookURL,
		IsActive:   true,
	}

	err = repos.Retailer.Create(context.Background(), retailer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create retailer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Retailer created successfully!\n\n")
	fmt.Printf("Retailer ID: %s\n", retailer.ID.String())
	fmt.Printf("Retailer Name: %s\n", retailer.Name)
	fmt.Printf("API Key: %s\n", apiKey)
	if webhookURL != nil {
		fmt.Printf("Webhook URL: %s\n", *webhookURL)
	}
	fmt.Printf("\n⚠️  IMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
