package mocks

import (
	"context"

	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SolvedNotifier
type SolvedNotifier struct {
	mock.Mock
}

func (m *SolvedNotifier) PublishSheetSolved(ctx context.Context, event models.SheetSolvedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Mock AnswerThrottle
type AnswerThrottle struct {
	mock.Mock
}

func (m *AnswerThrottle) Allow(ctx context.Context, userID, sheetID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, sheetID)
	return args.Bool(0), args.Error(1)
}
