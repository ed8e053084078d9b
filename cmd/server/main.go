package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/config"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/database"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/handler"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/session"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis for chat sessions
	redisClient, err := session.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Setup router
	r := handler.SetupRouter(cfg, db, redisClient, logger)

	// Start server
	addr := cfg.Host + ":" + cfg.Port
	logger.Infof("Local RAG chatbot starting on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
