package handler

import (
	"errors"
	"fmt"
	"net/http"

	"story-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitAnswerRequest - тело POST /sheets/:id/answer.
type SubmitAnswerRequest struct {
	Answer *string `json:"answer" binding:"required"`
}

// ResetProgressResponse - ответ POST /stories/:id/reset.
type ResetProgressResponse struct {
	Reset bool `json:"reset"`
}

func (h *PlayHandler) playStory(c *gin.Context) {
	userID, storyID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	start, err := h.service.PlayStory(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, start)
}

func (h *PlayHandler) getSheet(c *gin.Context) {
	userID, sheetID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	view, err := h.service.GetSheet(c.Request.Context(), userID, sheetID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PlayHandler) submitAnswer(c *gin.Context) {
	userID, sheetID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid answer request body", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: body must be {\"answer\": string}", models.ErrBadRequest), h.logger)
		return
	}

	result, err := h.service.SubmitAnswer(c.Request.Context(), userID, sheetID, *req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTooManyAttempts):
			answersTotal.WithLabelValues("throttled").Inc()
		case errors.Is(err, models.ErrAlreadySolved):
			answersTotal.WithLabelValues("already_solved").Inc()
		default:
			answersTotal.WithLabelValues("error").Inc()
		}
		handleServiceError(c, err, h.logger)
		return
	}

	if result.Correct {
		answersTotal.WithLabelValues("correct").Inc()
	} else {
		answersTotal.WithLabelValues("incorrect").Inc()
	}
	c.JSON(http.StatusOK, result)
}

func (h *PlayHandler) resetProgress(c *gin.Context) {
	userID, storyID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	reset, err := h.service.ResetProgress(c.Request.Context(), userID, storyID)
	if err != nil {
		resetsTotal.WithLabelValues("error").Inc()
		handleServiceError(c, err, h.logger)
		return
	}
	if reset {
		resetsTotal.WithLabelValues("archived").Inc()
	} else {
		resetsTotal.WithLabelValues("noop").Inc()
	}
	c.JSON(http.StatusOK, ResetProgressResponse{Reset: reset})
}

func (h *PlayHandler) giveUp(c *gin.Context) {
	userID, storyID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	if err := h.service.GiveUp(c.Request.Context(), userID, storyID); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlayHandler) listHistory(c *gin.Context) {
	userID, storyID, ok := h.requestIDs(c)
	if !ok {
		return
	}
	rows, err := h.service.ListHistory(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
