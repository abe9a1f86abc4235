package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/repository/postgres"
)

func main() {
	idFlag := flag.String("id", "", "Tenant identifier (e.g. shipitez)")
	nameFlag := flag.String("name", "", "Tenant display name")
	emailFlag := flag.String("email", "", "Contact email")
	apiKeyFlag := flag.String("api-key", "", "API key for this tenant (save it; it cannot be retrieved later)")
	flag.Parse()

	tenantID := strings.TrimSpace(*idFlag)
	name := strings.TrimSpace(*nameFlag)
	// Trim so the stored hash matches what the server receives (AuthMiddleware trims the Bearer token)
	apiKey := strings.TrimSpace(*apiKeyFlag)

	if tenantID == "" || name == "" || apiKey == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/create-tenant/main.go --id shipitez --name \"ShipItEZ Logistics\" --email ops@shipitez.com --api-key \"your-api-key\"")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// bcrypt for verification; SHA256 hex for indexed lookup
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(db, logger)

	tenant := &domain.Tenant{
		ID:           tenantID,
		Name:         name,
		DisplayName:  name,
		ContactEmail: strings.TrimSpace(*emailFlag),
		APIKeyHash:   string(apiKeyHash),
		APIKeyLookup: postgres.APIKeyLookupHash(apiKey),
		IsActive:     true,
	}

	if err := repos.Tenant.Create(context.Background(), tenant); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create tenant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tenant created successfully!\n\n")
	fmt.Printf("Tenant ID: %s\n", tenant.ID)
	fmt.Printf("Name: %s\n", tenant.Name)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\nIMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
