package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"story-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// UserIDKey - ключ gin.Context, под которым лежит uuid.UUID пользователя.
const UserIDKey = "user_id"

// TokenVerifier проверяет access токен и возвращает его claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

var tokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "story_token_verifications_total",
		Help: "Total number of access token verification attempts by status.",
	},
	[]string{"status"},
)

// AuthMiddleware требует Bearer токен и кладет UserID в gin.Context и в контекст запроса.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("Authorization header missing", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			log.Warn("Invalid Authorization header format")
			abortUnauthorized(c, "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			log.Info("Access token verification failed", zap.Error(err))
			message := "Invalid access token"
			if errors.Is(err, models.ErrTokenExpired) {
				message = "Access token has expired"
			}
			abortUnauthorized(c, message)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(models.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	tokenVerificationsTotal.WithLabelValues("failure").Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    models.ErrCodeAuthenticationRequired,
		Message: message,
	})
}
