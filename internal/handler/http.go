package handler

import (
	"fmt"
	"net/http"

	"story-server/internal/middleware"
	"story-server/internal/models"
	"story-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlayHandler обрабатывает HTTP запросы прохождения историй.
type PlayHandler struct {
	service  service.PlayService
	verifier middleware.TokenVerifier
	logger   *zap.Logger
}

func NewPlayHandler(s service.PlayService, verifier middleware.TokenVerifier, logger *zap.Logger) *PlayHandler {
	return &PlayHandler{
		service:  s,
		verifier: verifier,
		logger:   logger.Named("PlayHandler"),
	}
}

// RegisterRoutes регистрирует /health и маршруты /api/v1.
func (h *PlayHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.health)

	api := router.Group("/api/v1", middleware.AuthMiddleware(h.verifier, h.logger))
	{
		stories := api.Group("/stories")
		stories.POST("/:id/play", h.playStory)
		stories.POST("/:id/reset", h.resetProgress)
		stories.POST("/:id/give-up", h.giveUp)
		stories.GET("/:id/history", h.listHistory)

		sheets := api.Group("/sheets")
		sheets.GET("/:id", h.getSheet)
		sheets.POST("/:id/answer", h.submitAnswer)
	}
}

func (h *PlayHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// userIDFromContext достает пользователя, положенного AuthMiddleware.
func userIDFromContext(c *gin.Context) (uuid.UUID, error) {
	if userID, ok := models.GetUserIDFromContext(c.Request.Context()); ok {
		return userID, nil
	}
	return uuid.Nil, models.ErrAuthenticationRequired
}

func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", models.ErrBadRequest, raw)
	}
	return id, nil
}

// requestIDs возвращает пользователя и id из пути или пишет ответ с ошибкой.
func (h *PlayHandler) requestIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := userIDFromContext(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
