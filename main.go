package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vectordock/vectordock/controller"
	"github.com/vectordock/vectordock/services"
	"github.com/vectordock/vectordock/storage"
)

func main() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	// Open the SQLite store and apply the schema.
	store, err := storage.NewStore(envOr("DB_PATH", "data/vectordock.db"))
	if err != nil {
		log.Fatalf("FATAL: Failed to open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: Failed to close store: %v", err)
		}
	}()
	log.Printf("Store ready at %s", store.Path())

	// Seed the bootstrap API key so the API is reachable on a fresh database.
	if key := os.Getenv("BOOTSTRAP_API_KEY"); key != "" {
		account := envOr("BOOTSTRAP_ACCOUNT_ID", "bootstrap")
		if err := store.APIKeys().SaveKey(context.Background(), key, account); err != nil {
			log.Fatalf("FATAL: Failed to seed bootstrap API key: %v", err)
		}
		log.Printf("Seeded bootstrap API key for account %q", account)
	}

	embedder, err := buildEmbedder(context.Background())
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedding client: %v", err)
	}

	embeddingDim, err := strconv.Atoi(envOr("EMBEDDING_DIM", "768"))
	if err != nil {
		log.Fatalf("FATAL: Invalid EMBEDDING_DIM: %v", err)
	}

	documentService := services.NewDocumentService(store.Documents(), embedder, embeddingDim)
	authenticator := services.NewAPIKeyAuthenticator(store.APIKeys())
	documentController := controller.NewDocumentController(documentService)

	// Optional file ingestion: keep a local directory in sync with a collection.
	if watchDir := os.Getenv("WATCH_DIR"); watchDir != "" {
		if err := services.InitPDFLicense(os.Getenv("UNIDOC_LICENSE_KEY")); err != nil {
			log.Printf("Warning: %v. PDF files will be skipped with errors.", err)
		}
		indexer := services.NewFileIndexingService(
			documentService,
			envOr("WATCH_ACCOUNT_ID", "indexer"),
			envOr("WATCH_COLLECTION_ID", "local-files"),
		)
		go func() {
			indexer.ScanAndIndexDirectory(context.Background(), watchDir)
			indexer.WatchDirectory(context.Background(), watchDir)
		}()
	}

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware for testing
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+controller.APIKeyHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Add health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "vectordock",
			"version": "1.0.0",
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	apiV1.Use(controller.RequireAPIKey(authenticator))
	{
		apiV1.GET("/documents", documentController.ListDocuments)    // Endpoint to list a collection
		apiV1.POST("/documents", documentController.InsertDocuments) // Endpoint to ingest a batch
	}

	// Start the Server
	port := envOr("PORT", "8080")
	log.Printf("vectordock server starting on http://localhost:%s", port)
	log.Printf("Health check available at: http://localhost:%s/health", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// buildEmbedder constructs the configured embedding provider client.
func buildEmbedder(ctx context.Context) (services.Embedder, error) {
	provider := envOr("EMBEDDING_PROVIDER", "openai")
	model := envOr("EMBEDDING_MODEL", "text-embedding-3-small")

	switch provider {
	case "openai":
		return services.NewOpenAIEmbedder(
			os.Getenv("EMBEDDING_BASE_URL"),
			os.Getenv("OPENAI_API_KEY"),
			model,
		)
	case "gemini":
		return services.NewGeminiEmbedder(ctx, os.Getenv("GEMINI_API_KEY"), model)
	default:
		return nil, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", provider)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
