package database

import (
	"context"
	"errors"
	"fmt"

	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	storyColumns = `id, author_id, title, description, is_deleted, is_displayable, is_secret, play_count, like_count, created_at, updated_at`

	getStoryByIDQuery        = `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	isAllowedViewerQuery     = `SELECT EXISTS (SELECT 1 FROM story_allowed_viewers WHERE story_id = $1 AND user_id = $2)`
	incrementPlayCountQuery  = `UPDATE stories SET play_count = play_count + 1 WHERE id = $1`
	listSubscriberEmailQuery = `SELECT email FROM story_subscribers WHERE story_id = $1 ORDER BY email`
)

var (
	_ interfaces.StoryRepository      = (*pgStoryRepository)(nil)
	_ interfaces.SubscriberRepository = (*pgStoryRepository)(nil)
)

type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository создает репозиторий историй. Он же отдает e-mail подписчиков истории.
func NewPgStoryRepository(logger *zap.Logger) *pgStoryRepository {
	return &pgStoryRepository{logger: logger.Named("PgStoryRepo")}
}

func (r *pgStoryRepository) GetByID(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, q, &story, getStoryByIDQuery, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.Stringer("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %s: %w", storyID, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) IsAllowedViewer(ctx context.Context, q interfaces.DBTX, storyID, userID uuid.UUID) (bool, error) {
	var allowed bool
	if err := q.QueryRow(ctx, isAllowedViewerQuery, storyID, userID).Scan(&allowed); err != nil {
		return false, fmt.Errorf("failed to check allowed viewer for story %s: %w", storyID, err)
	}
	return allowed, nil
}

func (r *pgStoryRepository) IncrementPlayCount(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) error {
	tag, err := q.Exec(ctx, incrementPlayCountQuery, storyID)
	if err != nil {
		return fmt.Errorf("failed to increment play count for story %s: %w", storyID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) ListEmails(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) ([]string, error) {
	var emails []string
	if err := pgxscan.Select(ctx, q, &emails, listSubscriberEmailQuery, storyID); err != nil {
		return nil, fmt.Errorf("failed to list subscribers for story %s: %w", storyID, err)
	}
	return emails, nil
}
