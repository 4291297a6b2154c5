package interfaces

import (
	"context"

	"story-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository - доступ к историям. Движок меняет только агрегированные счетчики.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// GetByID возвращает историю вне зависимости от флагов видимости.
	// Returns models.ErrNotFound if not found.
	GetByID(ctx context.Context, q DBTX, storyID uuid.UUID) (*models.Story, error)

	// IsAllowedViewer проверяет, входит ли пользователь в список допущенных к секретной истории.
	IsAllowedViewer(ctx context.Context, q DBTX, storyID, userID uuid.UUID) (bool, error)

	// IncrementPlayCount увеличивает play_count на 1.
	IncrementPlayCount(ctx context.Context, q DBTX, storyID uuid.UUID) error
}

// SheetRepository - доступ к листам, ответам и путям графа.
//
//go:generate mockery --name SheetRepository --output ./mocks --outpkg mocks --case=underscore
type SheetRepository interface {
	// GetAvailableByID возвращает не удаленный лист не удаленной и отображаемой истории.
	// Returns models.ErrNotFound otherwise.
	GetAvailableByID(ctx context.Context, q DBTX, sheetID uuid.UUID) (*models.Sheet, error)

	// ListStartSheets возвращает все не удаленные листы истории с is_start = true.
	ListStartSheets(ctx context.Context, q DBTX, storyID uuid.UUID) ([]models.Sheet, error)

	// ListAnswers возвращает не удаленные ответы листа вместе с исходящими путями.
	ListAnswers(ctx context.Context, q DBTX, sheetID uuid.UUID) ([]models.Answer, error)
}

// SubscriberRepository - e-mail подписчики истории.
//
//go:generate mockery --name SubscriberRepository --output ./mocks --outpkg mocks --case=underscore
type SubscriberRepository interface {
	ListEmails(ctx context.Context, q DBTX, storyID uuid.UUID) ([]string, error)
}
