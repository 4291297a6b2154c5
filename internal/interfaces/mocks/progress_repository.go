package mocks

import (
	"context"
	"time"

	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ProgressRepository
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) GetLive(ctx context.Context, q interfaces.DBTX, userID, sheetID uuid.UUID, sheetVersion int) (*models.UserProgress, error) {
	args := m.Called(ctx, q, userID, sheetID, sheetVersion)
	p, _ := args.Get(0).(*models.UserProgress)
	return p, args.Error(1)
}
func (m *ProgressRepository) GetByIDForUpdate(ctx context.Context, q interfaces.DBTX, progressID uuid.UUID) (*models.UserProgress, error) {
	args := m.Called(ctx, q, progressID)
	p, _ := args.Get(0).(*models.UserProgress)
	return p, args.Error(1)
}
func (m *ProgressRepository) Create(ctx context.Context, q interfaces.DBTX, progress *models.UserProgress) (*models.UserProgress, error) {
	args := m.Called(ctx, q, progress)
	p, _ := args.Get(0).(*models.UserProgress)
	return p, args.Error(1)
}
func (m *ProgressRepository) MarkSolved(ctx context.Context, q interfaces.DBTX, progress *models.UserProgress) error {
	args := m.Called(ctx, q, progress)
	return args.Error(0)
}
func (m *ProgressRepository) ListSolvedLeadingTo(ctx context.Context, q interfaces.DBTX, userID, sheetID uuid.UUID) ([]models.UserProgress, error) {
	args := m.Called(ctx, q, userID, sheetID)
	rows, _ := args.Get(0).([]models.UserProgress)
	return rows, args.Error(1)
}
func (m *ProgressRepository) ListByUserAndStoryForUpdate(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) ([]models.UserProgress, error) {
	args := m.Called(ctx, q, userID, storyID)
	rows, _ := args.Get(0).([]models.UserProgress)
	return rows, args.Error(1)
}
func (m *ProgressRepository) DeleteByIDs(ctx context.Context, q interfaces.DBTX, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, ids)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// Mock HistoryRepository
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) MaxGroupID(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (int, error) {
	args := m.Called(ctx, q, userID, storyID)
	return args.Int(0), args.Error(1)
}
func (m *HistoryRepository) InsertBatch(ctx context.Context, q interfaces.DBTX, groupID int, rows []models.UserProgress, archivedAt time.Time) error {
	args := m.Called(ctx, q, groupID, rows, archivedAt)
	return args.Error(0)
}
func (m *HistoryRepository) ListByUserAndStory(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) ([]models.UserProgressHistory, error) {
	args := m.Called(ctx, q, userID, storyID)
	rows, _ := args.Get(0).([]models.UserProgressHistory)
	return rows, args.Error(1)
}

// Mock StoryProgressRepository
type StoryProgressRepository struct {
	mock.Mock
}

func (m *StoryProgressRepository) Get(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	args := m.Called(ctx, q, userID, storyID)
	p, _ := args.Get(0).(*models.UserStoryProgress)
	return p, args.Error(1)
}
func (m *StoryProgressRepository) GetForUpdate(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	args := m.Called(ctx, q, userID, storyID)
	p, _ := args.Get(0).(*models.UserStoryProgress)
	return p, args.Error(1)
}
func (m *StoryProgressRepository) Create(ctx context.Context, q interfaces.DBTX, progress *models.UserStoryProgress) (bool, error) {
	args := m.Called(ctx, q, progress)
	return args.Bool(0), args.Error(1)
}
func (m *StoryProgressRepository) UpdateStatus(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID, status models.StoryProgressStatus) error {
	args := m.Called(ctx, q, userID, storyID, status)
	return args.Error(0)
}
