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
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type archiverMocks struct {
	tx            *mocks.TxManager
	progress      *mocks.ProgressRepository
	history       *mocks.HistoryRepository
	storyProgress *mocks.StoryProgressRepository
}

func newArchiver() (*service.HistoryArchiver, archiverMocks) {
	m := archiverMocks{
		tx:            new(mocks.TxManager),
		progress:      new(mocks.ProgressRepository),
		history:       new(mocks.HistoryRepository),
		storyProgress: new(mocks.StoryProgressRepository),
	}
	return service.NewHistoryArchiver(m.tx, m.progress, m.history, m.storyProgress, zap.NewNop()), m
}

func TestResetProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("Consecutive resets get increasing group ids", func(t *testing.T) {
		f := newFixture()
		archiver, m := newArchiver()
		firstRun := []models.UserProgress{f.solvedStart("Red Door"), *f.liveProgress(f.second)}
		secondRun := []models.UserProgress{*f.liveProgress(f.start)}

		m.tx.On("WithTx", ctx, mock.Anything).Return(nil).Twice()
		m.storyProgress.On("GetForUpdate", ctx, nil, f.userID, f.story.ID).Return(f.started, nil).Twice()

		m.progress.On("ListByUserAndStoryForUpdate", ctx, nil, f.userID, f.story.ID).Return(firstRun, nil).Once()
		m.history.On("MaxGroupID", ctx, nil, f.userID, f.story.ID).Return(0, nil).Once()
		m.history.On("InsertBatch", ctx, nil, 1, firstRun, mock.AnythingOfType("time.Time")).Return(nil).Once()
		m.progress.On("DeleteByIDs", ctx, nil, []uuid.UUID{firstRun[0].ID, firstRun[1].ID}).Return(int64(2), nil).Once()

		archived, err := archiver.ResetProgress(ctx, f.userID, f.story.ID)
		require.NoError(t, err)
		assert.True(t, archived)

		m.progress.On("ListByUserAndStoryForUpdate", ctx, nil, f.userID, f.story.ID).Return(secondRun, nil).Once()
		m.history.On("MaxGroupID", ctx, nil, f.userID, f.story.ID).Return(1, nil).Once()
		m.history.On("InsertBatch", ctx, nil, 2, secondRun, mock.AnythingOfType("time.Time")).Return(nil).Once()
		m.progress.On("DeleteByIDs", ctx, nil, []uuid.UUID{secondRun[0].ID}).Return(int64(1), nil).Once()

		archived, err = archiver.ResetProgress(ctx, f.userID, f.story.ID)
		require.NoError(t, err)
		assert.True(t, archived)

		mock.AssertExpectationsForObjects(t, m.tx, m.progress, m.history, m.storyProgress)
		m.storyProgress.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Nothing to archive is a no-op", func(t *testing.T) {
		f := newFixture()
		archiver, m := newArchiver()

		m.tx.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		m.storyProgress.On("GetForUpdate", ctx, nil, f.userID, f.story.ID).Return(nil, models.ErrNotFound).Once()
		m.progress.On("ListByUserAndStoryForUpdate", ctx, nil, f.userID, f.story.ID).Return([]models.UserProgress{}, nil).Once()

		archived, err := archiver.ResetProgress(ctx, f.userID, f.story.ID)

		require.NoError(t, err)
		assert.False(t, archived)
		m.history.AssertNotCalled(t, "MaxGroupID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.history.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.progress.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed archive keeps live rows", func(t *testing.T) {
		f := newFixture()
		archiver, m := newArchiver()
		rows := []models.UserProgress{f.solvedStart("Red Door")}
		insertErr := errors.New("disk full")

		m.tx.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		m.storyProgress.On("GetForUpdate", ctx, nil, f.userID, f.story.ID).Return(f.started, nil).Once()
		m.progress.On("ListByUserAndStoryForUpdate", ctx, nil, f.userID, f.story.ID).Return(rows, nil).Once()
		m.history.On("MaxGroupID", ctx, nil, f.userID, f.story.ID).Return(3, nil).Once()
		m.history.On("InsertBatch", ctx, nil, 4, rows, mock.AnythingOfType("time.Time")).Return(insertErr).Once()

		archived, err := archiver.ResetProgress(ctx, f.userID, f.story.ID)

		assert.False(t, archived)
		assert.ErrorIs(t, err, insertErr)
		m.progress.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rows vanished under lock abort the reset", func(t *testing.T) {
		f := newFixture()
		archiver, m := newArchiver()
		rows := []models.UserProgress{f.solvedStart("Red Door"), *f.liveProgress(f.second)}

		m.tx.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		m.storyProgress.On("GetForUpdate", ctx, nil, f.userID, f.story.ID).Return(f.started, nil).Once()
		m.progress.On("ListByUserAndStoryForUpdate", ctx, nil, f.userID, f.story.ID).Return(rows, nil).Once()
		m.history.On("MaxGroupID", ctx, nil, f.userID, f.story.ID).Return(0, nil).Once()
		m.history.On("InsertBatch", ctx, nil, 1, rows, mock.AnythingOfType("time.Time")).Return(nil).Once()
		m.progress.On("DeleteByIDs", ctx, nil, []uuid.UUID{rows[0].ID, rows[1].ID}).Return(int64(1), nil).Once()

		archived, err := archiver.ResetProgress(ctx, f.userID, f.story.ID)

		assert.False(t, archived)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cleared 1 of 2")
		mock.AssertExpectationsForObjects(t, m.tx, m.progress, m.history, m.storyProgress)
	})
}
