package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vector-IT-Drew/Dash/internal/config"
	"github.com/Vector-IT-Drew/Dash/internal/handler"
	"github.com/Vector-IT-Drew/Dash/internal/repository"
	"github.com/Vector-IT-Drew/Dash/internal/service"
	"github.com/Vector-IT-Drew/Dash/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("Dash Apartment Search Assistant")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize OpenAI-backed extractor and responder
	var extractor service.Extractor
	var responder service.Responder
	if cfg.OpenAI.Enabled {
		openaiClient := service.NewOpenAIClient(&cfg.OpenAI)
		extractor = service.NewOpenAIExtractor(openaiClient, cfg.OpenAI.ExtractorModel, cfg.OpenAI.ExtractorTemp)
		responder = service.NewOpenAIResponder(openaiClient, cfg.OpenAI.ResponderModel, cfg.OpenAI.ResponderTemp, cfg.OpenAI.ChatMaxTokens)
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Extractor model: %s", cfg.OpenAI.ExtractorModel)
		log.Printf("   - Responder model: %s", cfg.OpenAI.ResponderModel)
	} else {
		log.Println("⚠️  OpenAI is disabled - preference extraction will not work")
		log.Println("   Set OPENAI_API_KEY environment variable to enable the assistant")
	}

	// Initialize session store and chat service
	sessions := session.NewStore(cfg.Chat.SessionTTL)
	defer sessions.Close()

	chatService := service.NewChatService(repo, sessions, extractor, responder, repo, cfg.Chat)

	log.Println("✅ Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(chatService)
	listingsHandler := handler.NewListingsHandler(repo, 100, 1000)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "apartment-search-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
			"sessions":   sessions.Len(),
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Conversation endpoints
		apiV1.POST("/chat/start", chatHandler.Start)
		apiV1.POST("/chat", chatHandler.Turn)
		apiV1.POST("/chat/stream", chatHandler.TurnStream) // Streaming turn
		apiV1.POST("/chat/reset", chatHandler.Reset)

		// Listing endpoints
		apiV1.GET("/listings", listingsHandler.List)
		apiV1.GET("/listings/:id", listingsHandler.Get)
		apiV1.GET("/listings/:id/similar", listingsHandler.Similar)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
