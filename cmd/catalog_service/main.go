package main

import (
	"time"

	"github.com/gin-gonic/gin"

	catalogAPI "github.com/prasetyow/product-catalog-service/internal/catalog/api"
	"github.com/prasetyow/product-catalog-service/internal/catalog/repository"
	catalogService "github.com/prasetyow/product-catalog-service/internal/catalog/service"
	"github.com/prasetyow/product-catalog-service/internal/platform/config"
	"github.com/prasetyow/product-catalog-service/internal/platform/database"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

func main() {
	// Load Config
	dbCfg := config.LoadCatalogDBConfig()
	serverCfg := config.LoadServerConfig("8082")
	authCfg := config.LoadAuthConfig()

	organizationServiceURL := config.GetEnv("ORGANIZATION_SERVICE_URL", "http://localhost:8081")
	discountRetention := config.GetEnvAsDuration("DISCOUNT_RETENTION", 30*24*time.Hour)

	logger.Info("Starting Catalog Service...")

	// Setup Database
	db, err := database.Connect(dbCfg.DSN)
	if err != nil {
		logger.Error("Failed to connect to database for Catalog Service", err)
		return
	}
	defer db.Close()

	// Setup Dependencies
	orgClient := catalogService.NewHTTPOrganizationClient(organizationServiceURL)
	productRepository := repository.NewPostgresProductRepository(db)
	requestRepository := repository.NewPostgresRequestRepository(db)
	productService := catalogService.NewProductService(productRepository, requestRepository, orgClient, discountRetention)
	productHandler := catalogAPI.NewProductHandler(productService)

	// Setup Gin Router
	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.Use(catalogAPI.RequestID())

	apiV1 := router.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1, catalogAPI.RequireIdentity(authCfg.JWTSecret))

	logger.Info("Catalog Service running on port " + serverCfg.Port)
	logger.Info("Catalog Service connecting to Organization Service at " + organizationServiceURL)
	if err := router.Run(serverCfg.Port); err != nil {
		logger.Error("Failed to run Catalog Service server", err)
	}
}
