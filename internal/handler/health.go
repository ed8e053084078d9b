package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/service"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/session"
)

type HealthHandler struct {
	db            *gorm.DB
	redisClient   *session.Client
	generationSvc *service.GenerationService
}

func NewHealthHandler(db *gorm.DB, redisClient *session.Client, generationSvc *service.GenerationService) *HealthHandler {
	return &HealthHandler{db: db, redisClient: redisClient, generationSvc: generationSvc}
}

// Health reports the state of each dependency alongside the overall
// service status.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := gin.H{
		"database":   h.databaseOK(c),
		"redis":      h.redisOK(c),
		"generation": h.generationSvc.IsReachable(c.Request.Context()),
	}

	status := "healthy"
	for _, ok := range checks {
		if ok != true {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "local-rag-chatbot",
		"checks":  checks,
	})
}

// Ready fails when storage dependencies are down, which should pull
// the instance out of rotation.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.databaseOK(c) || !h.redisOK(c) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *HealthHandler) databaseOK(c *gin.Context) bool {
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(c.Request.Context()) == nil
}

func (h *HealthHandler) redisOK(c *gin.Context) bool {
	return h.redisClient.Ping(c.Request.Context()) == nil
}
