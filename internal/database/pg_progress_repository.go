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
	progressColumns = `id, user_id, story_id, sheet_id, sheet_version, answer_id, path_id, sheet_question, answer, submitted_answer, answer_version, status, start_time, solved_time`

	getLiveProgressQuery = `
SELECT ` + progressColumns + `
FROM user_progress
WHERE user_id = $1 AND sheet_id = $2 AND sheet_version = $3`

	getProgressForUpdateQuery = `SELECT ` + progressColumns + ` FROM user_progress WHERE id = $1 FOR UPDATE`

	createProgressQuery = `
INSERT INTO user_progress (id, user_id, story_id, sheet_id, sheet_version, sheet_question, status, start_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, sheet_id, sheet_version) DO NOTHING
RETURNING ` + progressColumns

	markProgressSolvedQuery = `
UPDATE user_progress SET
    status = 'solved',
    solved_time = $2,
    sheet_question = $3,
    answer_id = $4,
    answer = $5,
    submitted_answer = $6,
    answer_version = $7,
    path_id = $8
WHERE id = $1 AND status = 'solving'`

	listSolvedLeadingToQuery = `
SELECT up.id, up.user_id, up.story_id, up.sheet_id, up.sheet_version, up.answer_id, up.path_id,
       up.sheet_question, up.answer, up.submitted_answer, up.answer_version, up.status, up.start_time, up.solved_time
FROM user_progress up
JOIN paths p ON p.id = up.path_id
WHERE up.user_id = $1 AND up.status = 'solved' AND p.next_sheet_id = $2
ORDER BY up.solved_time`

	listProgressForUpdateQuery = `
SELECT ` + progressColumns + `
FROM user_progress
WHERE user_id = $1 AND story_id = $2
ORDER BY start_time, id
FOR UPDATE`

	deleteProgressByIDsQuery = `DELETE FROM user_progress WHERE id = ANY($1)`
)

var _ interfaces.ProgressRepository = (*pgProgressRepository)(nil)

type pgProgressRepository struct {
	logger *zap.Logger
}

func NewPgProgressRepository(logger *zap.Logger) interfaces.ProgressRepository {
	return &pgProgressRepository{logger: logger.Named("PgProgressRepo")}
}

func (r *pgProgressRepository) GetLive(ctx context.Context, q interfaces.DBTX, userID, sheetID uuid.UUID, sheetVersion int) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := pgxscan.Get(ctx, q, &progress, getLiveProgressQuery, userID, sheetID, sheetVersion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get live progress: %w", err)
	}
	return &progress, nil
}

func (r *pgProgressRepository) GetByIDForUpdate(ctx context.Context, q interfaces.DBTX, progressID uuid.UUID) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := pgxscan.Get(ctx, q, &progress, getProgressForUpdateQuery, progressID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock progress %s: %w", progressID, err)
	}
	return &progress, nil
}

// Create вставляет запись. Параллельная вставка того же (user, sheet, version) не ошибка:
// проигравший получает строку победителя.
func (r *pgProgressRepository) Create(ctx context.Context, q interfaces.DBTX, p *models.UserProgress) (*models.UserProgress, error) {
	var created models.UserProgress
	err := pgxscan.Get(ctx, q, &created, createProgressQuery,
		p.ID, p.UserID, p.StoryID, p.SheetID, p.SheetVersion, p.SheetQuestion, p.Status, p.StartTime,
	)
	if err == nil {
		return &created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to insert progress", zap.Stringer("userID", p.UserID), zap.Stringer("sheetID", p.SheetID), zap.Error(err))
		return nil, fmt.Errorf("failed to insert progress: %w", err)
	}

	r.logger.Debug("Progress already exists, reading winner row", zap.Stringer("userID", p.UserID), zap.Stringer("sheetID", p.SheetID))
	return r.GetLive(ctx, q, p.UserID, p.SheetID, p.SheetVersion)
}

func (r *pgProgressRepository) MarkSolved(ctx context.Context, q interfaces.DBTX, p *models.UserProgress) error {
	tag, err := q.Exec(ctx, markProgressSolvedQuery,
		p.ID, p.SolvedTime, p.SheetQuestion, p.AnswerID, p.Answer, p.SubmittedAnswer, p.AnswerVersion, p.PathID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark progress %s solved: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAlreadySolved
	}
	return nil
}

func (r *pgProgressRepository) ListSolvedLeadingTo(ctx context.Context, q interfaces.DBTX, userID, sheetID uuid.UUID) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	if err := pgxscan.Select(ctx, q, &rows, listSolvedLeadingToQuery, userID, sheetID); err != nil {
		return nil, fmt.Errorf("failed to list progress leading to sheet %s: %w", sheetID, err)
	}
	return rows, nil
}

func (r *pgProgressRepository) ListByUserAndStoryForUpdate(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	if err := pgxscan.Select(ctx, q, &rows, listProgressForUpdateQuery, userID, storyID); err != nil {
		return nil, fmt.Errorf("failed to lock progress of story %s: %w", storyID, err)
	}
	return rows, nil
}

func (r *pgProgressRepository) DeleteByIDs(ctx context.Context, q interfaces.DBTX, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := q.Exec(ctx, deleteProgressByIDsQuery, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d progress rows: %w", len(ids), err)
	}
	return tag.RowsAffected(), nil
}
