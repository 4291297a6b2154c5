package mocks

import (
	"context"

	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) GetByID(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, q, storyID)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) IsAllowedViewer(ctx context.Context, q interfaces.DBTX, storyID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, storyID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *StoryRepository) IncrementPlayCount(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, q, storyID)
	return args.Error(0)
}

// Mock SheetRepository
type SheetRepository struct {
	mock.Mock
}

func (m *SheetRepository) GetAvailableByID(ctx context.Context, q interfaces.DBTX, sheetID uuid.UUID) (*models.Sheet, error) {
	args := m.Called(ctx, q, sheetID)
	sheet, _ := args.Get(0).(*models.Sheet)
	return sheet, args.Error(1)
}
func (m *SheetRepository) ListStartSheets(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) ([]models.Sheet, error) {
	args := m.Called(ctx, q, storyID)
	sheets, _ := args.Get(0).([]models.Sheet)
	return sheets, args.Error(1)
}
func (m *SheetRepository) ListAnswers(ctx context.Context, q interfaces.DBTX, sheetID uuid.UUID) ([]models.Answer, error) {
	args := m.Called(ctx, q, sheetID)
	answers, _ := args.Get(0).([]models.Answer)
	return answers, args.Error(1)
}

// Mock SubscriberRepository
type SubscriberRepository struct {
	mock.Mock
}

func (m *SubscriberRepository) ListEmails(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, q, storyID)
	emails, _ := args.Get(0).([]string)
	return emails, args.Error(1)
}
