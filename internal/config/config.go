package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Host        string `mapstructure:"HOST"`
	Port        string `mapstructure:"PORT"`
	GinMode     string `mapstructure:"GIN_MODE"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis (chat sessions)
	RedisURL          string `mapstructure:"REDIS_URL"`
	SessionTTLMinutes int    `mapstructure:"SESSION_TTL_MINUTES"`

	// Embedding backend (OpenAI compatible)
	EmbeddingBaseURL    string `mapstructure:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey     string `mapstructure:"EMBEDDING_API_KEY"`
	EmbeddingModel      string `mapstructure:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `mapstructure:"EMBEDDING_DIMENSIONS"`

	// Generation backend (Ollama)
	OllamaURL         string `mapstructure:"OLLAMA_URL"`
	OllamaModel       string `mapstructure:"OLLAMA_MODEL"`
	MaxAnswerTokens   int    `mapstructure:"MAX_ANSWER_TOKENS"`
	GenerationTimeout int    `mapstructure:"GENERATION_TIMEOUT_SECONDS"`

	// Chunking
	ChunkTargetSize int `mapstructure:"CHUNK_TARGET_SIZE"`
	ChunkMaxSize    int `mapstructure:"CHUNK_MAX_SIZE"`
	ChunkOverlap    int `mapstructure:"CHUNK_OVERLAP"`

	// Retrieval
	RetrievalTopK int `mapstructure:"RETRIEVAL_TOP_K"`

	// Ingestion
	MaxUploadSize int64 `mapstructure:"MAX_UPLOAD_SIZE"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8090")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/localrag?sslmode=disable")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379")
	viper.SetDefault("SESSION_TTL_MINUTES", 720)
	viper.SetDefault("EMBEDDING_BASE_URL", "http://localhost:8091/v1")
	viper.SetDefault("EMBEDDING_MODEL", "all-MiniLM-L6-v2")
	viper.SetDefault("EMBEDDING_DIMENSIONS", 384)
	viper.SetDefault("OLLAMA_URL", "http://localhost:11434")
	viper.SetDefault("OLLAMA_MODEL", "gemma3:1b")
	viper.SetDefault("MAX_ANSWER_TOKENS", 1500)
	viper.SetDefault("GENERATION_TIMEOUT_SECONDS", 120)
	viper.SetDefault("CHUNK_TARGET_SIZE", 1500)
	viper.SetDefault("CHUNK_MAX_SIZE", 2000)
	viper.SetDefault("CHUNK_OVERLAP", 200)
	viper.SetDefault("RETRIEVAL_TOP_K", 30)
	viper.SetDefault("MAX_UPLOAD_SIZE", 15*1024*1024) // 15MB

	// Try to read .env file (optional)
	_ = viper.ReadInConfig()

	// Environment variables win over the .env file
	for _, key := range []string{
		"HOST", "PORT", "GIN_MODE", "ENVIRONMENT", "LOG_LEVEL",
		"DATABASE_URL", "REDIS_URL", "SESSION_TTL_MINUTES",
		"EMBEDDING_BASE_URL", "EMBEDDING_API_KEY", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
		"OLLAMA_URL", "OLLAMA_MODEL", "MAX_ANSWER_TOKENS", "GENERATION_TIMEOUT_SECONDS",
		"CHUNK_TARGET_SIZE", "CHUNK_MAX_SIZE", "CHUNK_OVERLAP",
		"RETRIEVAL_TOP_K", "MAX_UPLOAD_SIZE",
	} {
		if val := os.Getenv(key); val != "" {
			viper.Set(key, val)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) GenerationTimeoutDuration() time.Duration {
	return time.Duration(c.GenerationTimeout) * time.Second
}
