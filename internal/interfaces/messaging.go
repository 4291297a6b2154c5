package interfaces

import (
	"context"

	"story-server/internal/models"

	"github.com/google/uuid"
)

// SolvedNotifier публикует событие о решенном листе. Доставка at-least-once, best-effort.
//
//go:generate mockery --name SolvedNotifier --output ./mocks --outpkg mocks --case=underscore
type SolvedNotifier interface {
	PublishSheetSolved(ctx context.Context, event models.SheetSolvedEvent) error
}

// AnswerThrottle ограничивает частоту попыток ответа на один лист.
//
//go:generate mockery --name AnswerThrottle --output ./mocks --outpkg mocks --case=underscore
type AnswerThrottle interface {
	Allow(ctx context.Context, userID, sheetID uuid.UUID) (bool, error)
}
