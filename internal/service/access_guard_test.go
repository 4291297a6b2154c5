package service_test

import (
	"context"
	"errors"
	"testing"

	"story-server/internal/interfaces/mocks"
	"story-server/internal/models"
	"story-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAssertReachable(t *testing.T) {
	ctx := context.Background()

	newGuard := func() (*service.AccessGuard, *mocks.ProgressRepository, *mocks.SheetRepository) {
		progressRepo := new(mocks.ProgressRepository)
		sheetRepo := new(mocks.SheetRepository)
		return service.NewAccessGuard(progressRepo, sheetRepo, zap.NewNop()), progressRepo, sheetRepo
	}

	t.Run("Start sheet is always reachable", func(t *testing.T) {
		f := newFixture()
		guard, progressRepo, _ := newGuard()

		assert.NoError(t, guard.AssertReachable(ctx, nil, f.userID, f.start))
		progressRepo.AssertNotCalled(t, "ListSolvedLeadingTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No solved path leads to sheet", func(t *testing.T) {
		f := newFixture()
		guard, progressRepo, _ := newGuard()

		progressRepo.On("ListSolvedLeadingTo", ctx, nil, f.userID, f.second.ID).Return([]models.UserProgress{}, nil).Once()

		err := guard.AssertReachable(ctx, nil, f.userID, f.second)

		assert.ErrorIs(t, err, models.ErrSheetNotAccessible)
	})

	t.Run("Frozen answer still configured", func(t *testing.T) {
		f := newFixture()
		guard, progressRepo, sheetRepo := newGuard()

		progressRepo.On("ListSolvedLeadingTo", ctx, nil, f.userID, f.second.ID).
			Return([]models.UserProgress{f.solvedStart("red door")}, nil).Once()
		sheetRepo.On("ListAnswers", ctx, nil, f.start.ID).Return([]models.Answer{f.red}, nil).Once()

		assert.NoError(t, guard.AssertReachable(ctx, nil, f.userID, f.second))
		sheetRepo.AssertExpectations(t)
	})

	t.Run("Answer edited after solve invalidates path", func(t *testing.T) {
		f := newFixture()
		guard, progressRepo, sheetRepo := newGuard()
		edited := f.red
		edited.Text = "Blue Door"

		progressRepo.On("ListSolvedLeadingTo", ctx, nil, f.userID, f.second.ID).
			Return([]models.UserProgress{f.solvedStart("Red Door")}, nil).Once()
		sheetRepo.On("ListAnswers", ctx, nil, f.start.ID).Return([]models.Answer{edited}, nil).Once()

		err := guard.AssertReachable(ctx, nil, f.userID, f.second)

		assert.ErrorIs(t, err, models.ErrSheetNotAccessible)
	})

	t.Run("Any valid incoming row is enough", func(t *testing.T) {
		f := newFixture()
		guard, progressRepo, sheetRepo := newGuard()
		otherOrigin := &models.Sheet{ID: uuid.New(), StoryID: f.story.ID, Version: 1}
		stale := f.liveProgress(otherOrigin)
		stale.Status = models.ProgressSolved
		stale.Answer = "gone"

		progressRepo.On("ListSolvedLeadingTo", ctx, nil, f.userID, f.second.ID).
			Return([]models.UserProgress{*stale, f.solvedStart("Red Door")}, nil).Once()
		sheetRepo.On("ListAnswers", ctx, nil, otherOrigin.ID).Return([]models.Answer{}, nil).Once()
		sheetRepo.On("ListAnswers", ctx, nil, f.start.ID).Return([]models.Answer{f.red}, nil).Once()

		assert.NoError(t, guard.AssertReachable(ctx, nil, f.userID, f.second))
		sheetRepo.AssertExpectations(t)
	})

	t.Run("Repository error is propagated", func(t *testing.T) {
		f := newFixture()
		guard, progressRepo, _ := newGuard()
		dbErr := errors.New("connection reset")

		progressRepo.On("ListSolvedLeadingTo", ctx, nil, f.userID, f.second.ID).Return(nil, dbErr).Once()

		err := guard.AssertReachable(ctx, nil, f.userID, f.second)

		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, models.ErrSheetNotAccessible)
	})
}
