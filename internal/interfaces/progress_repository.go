package interfaces

import (
	"context"
	"time"

	"story-server/internal/models"

	"github.com/google/uuid"
)

// ProgressRepository - живые записи UserProgress.
//
//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
type ProgressRepository interface {
	// GetLive возвращает запись для (user, sheet, sheetVersion).
	// Returns models.ErrNotFound if not found.
	GetLive(ctx context.Context, q DBTX, userID, sheetID uuid.UUID, sheetVersion int) (*models.UserProgress, error)

	// GetByIDForUpdate читает запись с блокировкой строки (SELECT ... FOR UPDATE).
	// Returns models.ErrNotFound if not found.
	GetByIDForUpdate(ctx context.Context, q DBTX, progressID uuid.UUID) (*models.UserProgress, error)

	// Create вставляет запись в статусе solving. При конфликте по (user, sheet, version)
	// возвращает уже существующую запись.
	Create(ctx context.Context, q DBTX, progress *models.UserProgress) (*models.UserProgress, error)

	// MarkSolved переводит запись solving -> solved и сохраняет снимки.
	// Returns models.ErrAlreadySolved if the row is no longer in solving state.
	MarkSolved(ctx context.Context, q DBTX, progress *models.UserProgress) error

	// ListSolvedLeadingTo возвращает решенные записи пользователя, чей выбранный путь ведет на sheetID.
	ListSolvedLeadingTo(ctx context.Context, q DBTX, userID, sheetID uuid.UUID) ([]models.UserProgress, error)

	// ListByUserAndStoryForUpdate возвращает все живые записи (user, story) с блокировкой.
	ListByUserAndStoryForUpdate(ctx context.Context, q DBTX, userID, storyID uuid.UUID) ([]models.UserProgress, error)

	// DeleteByIDs удаляет живые записи с указанными id и возвращает число удаленных.
	DeleteByIDs(ctx context.Context, q DBTX, ids []uuid.UUID) (int64, error)
}

// HistoryRepository - архив UserProgressHistory (только вставка и чтение).
//
//go:generate mockery --name HistoryRepository --output ./mocks --outpkg mocks --case=underscore
type HistoryRepository interface {
	// MaxGroupID возвращает максимальный group_id для (user, story) или 0.
	MaxGroupID(ctx context.Context, q DBTX, userID, storyID uuid.UUID) (int, error)

	// InsertBatch копирует все переданные записи в архив одним запросом.
	InsertBatch(ctx context.Context, q DBTX, groupID int, rows []models.UserProgress, archivedAt time.Time) error

	// ListByUserAndStory возвращает архив, новые группы первыми.
	ListByUserAndStory(ctx context.Context, q DBTX, userID, storyID uuid.UUID) ([]models.UserProgressHistory, error)
}

// StoryProgressRepository - агрегированный статус (user, story).
//
//go:generate mockery --name StoryProgressRepository --output ./mocks --outpkg mocks --case=underscore
type StoryProgressRepository interface {
	// Get returns models.ErrNotFound if the story was never played by the user.
	Get(ctx context.Context, q DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error)

	// GetForUpdate то же, что Get, но блокирует строку до конца транзакции.
	GetForUpdate(ctx context.Context, q DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error)

	// Create вставляет запись; created = false, если она уже была.
	Create(ctx context.Context, q DBTX, progress *models.UserStoryProgress) (created bool, err error)

	// UpdateStatus меняет статус. Returns models.ErrNotFound if no row exists.
	UpdateStatus(ctx context.Context, q DBTX, userID, storyID uuid.UUID, status models.StoryProgressStatus) error
}
