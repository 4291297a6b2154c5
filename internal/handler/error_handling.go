package handler

import (
	"errors"
	"net/http"

	"story-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит ошибку сервиса в HTTP ответ со стабильным кодом.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var statusCode int
	var resp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrStoryUnavailable):
		statusCode = http.StatusNotFound
		resp = models.ErrorResponse{Code: models.ErrCodeStoryUnavailable, Message: "Story is not available"}
	case errors.Is(err, models.ErrSheetUnavailable):
		statusCode = http.StatusNotFound
		resp = models.ErrorResponse{Code: models.ErrCodeSheetUnavailable, Message: "Sheet is not available"}
	case errors.Is(err, models.ErrStartSheetMissing):
		statusCode = http.StatusConflict
		resp = models.ErrorResponse{Code: models.ErrCodeStartSheetMissing, Message: "Story has no valid start sheet"}
	case errors.Is(err, models.ErrSheetNotAccessible):
		statusCode = http.StatusForbidden
		resp = models.ErrorResponse{Code: models.ErrCodeSheetNotAccessible, Message: "Sheet is not reachable yet"}
	case errors.Is(err, models.ErrAlreadySolved):
		statusCode = http.StatusConflict
		resp = models.ErrorResponse{Code: models.ErrCodeAlreadySolved, Message: "Already solved"}
	case errors.Is(err, models.ErrAuthenticationRequired):
		statusCode = http.StatusUnauthorized
		resp = models.ErrorResponse{Code: models.ErrCodeAuthenticationRequired, Message: "Authentication required"}
	case errors.Is(err, models.ErrStoryNotStarted):
		statusCode = http.StatusConflict
		resp = models.ErrorResponse{Code: models.ErrCodeStoryNotStarted, Message: "Story has not been started"}
	case errors.Is(err, models.ErrTooManyAttempts):
		statusCode = http.StatusTooManyRequests
		resp = models.ErrorResponse{Code: models.ErrCodeTooManyAttempts, Message: "Too many answer attempts, try again later"}
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		resp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "Internal server error"}
		logger.Error("Unhandled service error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
	}

	if statusCode == http.StatusForbidden || statusCode == http.StatusNotFound {
		accessRejectedTotal.WithLabelValues(resp.Code).Inc()
	}
	c.AbortWithStatusJSON(statusCode, resp)
}
