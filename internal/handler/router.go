package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/config"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/repository"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/service"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/session"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, redisClient *session.Client, logger *logrus.Logger) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	// Initialize services
	embeddingSvc := service.NewEmbeddingService(
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingBaseURL,
		cfg.EmbeddingModel,
		cfg.EmbeddingDimensions,
	)
	generationSvc := service.NewGenerationService(
		cfg.OllamaURL,
		cfg.OllamaModel,
		cfg.GenerationTimeoutDuration(),
	)
	vectorIndexSvc := service.NewVectorIndexService(chunkRepo, logger)

	chunker := &rag.Chunker{
		TargetSize: cfg.ChunkTargetSize,
		MaxSize:    cfg.ChunkMaxSize,
		Overlap:    cfg.ChunkOverlap,
	}
	ingestSvc := service.NewIngestService(documentRepo, vectorIndexSvc, embeddingSvc, chunker, cfg.MaxUploadSize, logger)

	histories := session.NewHistoryManager(redisClient, cfg.SessionTTL())
	chatSvc := service.NewChatService(
		rag.NewExpander(nil, logger),
		rag.NewRetriever(embeddingSvc, vectorIndexSvc, cfg.RetrievalTopK, logger),
		rag.NewFilter(nil, logger),
		rag.NewSynthesizer(generationSvc, cfg.MaxAnswerTokens, logger),
		generationSvc,
		histories,
		logger,
	)

	// Initialize handlers
	documentHandler := NewDocumentHandler(ingestSvc, documentRepo, vectorIndexSvc)
	chatHandler := NewChatHandler(chatSvc)
	healthHandler := NewHealthHandler(db, redisClient, generationSvc)

	// Health check endpoints
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/live", healthHandler.Live)

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":      "Local RAG Chatbot",
			"version":      "1.0.0",
			"status":       "running",
			"health_check": "/health",
		})
	})

	// API v1
	v1 := r.Group("/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.GET("", documentHandler.List)
			documents.POST("", documentHandler.Upload)
			documents.POST("/url", documentHandler.AddURL)
			documents.DELETE("/:name", documentHandler.Delete)
		}

		chat := v1.Group("/chat")
		{
			chat.POST("/ask", chatHandler.Ask)
			chat.GET("/sessions/:id/history", chatHandler.History)
			chat.DELETE("/sessions/:id", chatHandler.ClearSession)
		}
	}

	// Retrieval endpoint without answer synthesis, for debugging and
	// agent tool calls.
	r.POST("/retrieve", chatHandler.Retrieve)

	return r
}
