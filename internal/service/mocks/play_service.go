package mocks

import (
	"context"

	"story-server/internal/models"
	"story-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// PlayService - мок service.PlayService.
type PlayService struct {
	mock.Mock
}

var _ service.PlayService = (*PlayService)(nil)

func (m *PlayService) PlayStory(ctx context.Context, userID, storyID uuid.UUID) (*service.PlayStart, error) {
	args := m.Called(ctx, userID, storyID)
	start, _ := args.Get(0).(*service.PlayStart)
	return start, args.Error(1)
}

func (m *PlayService) GetSheet(ctx context.Context, userID, sheetID uuid.UUID) (*service.SheetView, error) {
	args := m.Called(ctx, userID, sheetID)
	view, _ := args.Get(0).(*service.SheetView)
	return view, args.Error(1)
}

func (m *PlayService) SubmitAnswer(ctx context.Context, userID, sheetID uuid.UUID, answer string) (*service.SubmitResult, error) {
	args := m.Called(ctx, userID, sheetID, answer)
	result, _ := args.Get(0).(*service.SubmitResult)
	return result, args.Error(1)
}

func (m *PlayService) ResetProgress(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, storyID)
	return args.Bool(0), args.Error(1)
}

func (m *PlayService) GiveUp(ctx context.Context, userID, storyID uuid.UUID) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}

func (m *PlayService) ListHistory(ctx context.Context, userID, storyID uuid.UUID) ([]models.UserProgressHistory, error) {
	args := m.Called(ctx, userID, storyID)
	rows, _ := args.Get(0).([]models.UserProgressHistory)
	return rows, args.Error(1)
}

func (m *PlayService) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
