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
	storyProgressColumns = `id, user_id, story_id, status, created_at, updated_at`

	getStoryProgressQuery          = `SELECT ` + storyProgressColumns + ` FROM user_story_progress WHERE user_id = $1 AND story_id = $2`
	getStoryProgressForUpdateQuery = getStoryProgressQuery + ` FOR UPDATE`

	createStoryProgressQuery = `
INSERT INTO user_story_progress (id, user_id, story_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, story_id) DO NOTHING`

	updateStoryProgressStatusQuery = `
UPDATE user_story_progress SET status = $3, updated_at = NOW()
WHERE user_id = $1 AND story_id = $2`
)

var _ interfaces.StoryProgressRepository = (*pgStoryProgressRepository)(nil)

type pgStoryProgressRepository struct {
	logger *zap.Logger
}

func NewPgStoryProgressRepository(logger *zap.Logger) interfaces.StoryProgressRepository {
	return &pgStoryProgressRepository{logger: logger.Named("PgStoryProgressRepo")}
}

func (r *pgStoryProgressRepository) Get(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	return r.get(ctx, q, getStoryProgressQuery, userID, storyID)
}

func (r *pgStoryProgressRepository) GetForUpdate(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	return r.get(ctx, q, getStoryProgressForUpdateQuery, userID, storyID)
}

func (r *pgStoryProgressRepository) get(ctx context.Context, q interfaces.DBTX, query string, userID, storyID uuid.UUID) (*models.UserStoryProgress, error) {
	var progress models.UserStoryProgress
	if err := pgxscan.Get(ctx, q, &progress, query, userID, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story progress: %w", err)
	}
	return &progress, nil
}

func (r *pgStoryProgressRepository) Create(ctx context.Context, q interfaces.DBTX, p *models.UserStoryProgress) (bool, error) {
	tag, err := q.Exec(ctx, createStoryProgressQuery, p.ID, p.UserID, p.StoryID, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story progress", zap.Stringer("userID", p.UserID), zap.Stringer("storyID", p.StoryID), zap.Error(err))
		return false, fmt.Errorf("failed to create story progress: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgStoryProgressRepository) UpdateStatus(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID, status models.StoryProgressStatus) error {
	tag, err := q.Exec(ctx, updateStoryProgressStatusQuery, userID, storyID, status)
	if err != nil {
		return fmt.Errorf("failed to update story progress status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
