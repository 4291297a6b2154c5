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
	sheetColumns = `s.id, s.story_id, s.title, s.question, s.version, s.is_start, s.is_final, s.is_deleted, s.created_at, s.updated_at`

	getAvailableSheetQuery = `
SELECT ` + sheetColumns + `
FROM sheets s
JOIN stories st ON st.id = s.story_id
WHERE s.id = $1
  AND NOT s.is_deleted
  AND NOT st.is_deleted
  AND st.is_displayable`

	listStartSheetsQuery = `
SELECT ` + sheetColumns + `
FROM sheets s
WHERE s.story_id = $1 AND s.is_start AND NOT s.is_deleted
ORDER BY s.created_at, s.id`

	listAnswersQuery = `
SELECT id, sheet_id, answer, reply, version, is_always_correct, is_deleted
FROM answers
WHERE sheet_id = $1 AND NOT is_deleted
ORDER BY created_at, id`

	listAnswerPathsQuery = `
SELECT p.id, p.answer_id, p.next_sheet_id, p.quantity
FROM paths p
JOIN answers a ON a.id = p.answer_id
WHERE a.sheet_id = $1 AND NOT a.is_deleted
ORDER BY p.created_at, p.id`
)

var _ interfaces.SheetRepository = (*pgSheetRepository)(nil)

type pgSheetRepository struct {
	logger *zap.Logger
}

func NewPgSheetRepository(logger *zap.Logger) interfaces.SheetRepository {
	return &pgSheetRepository{logger: logger.Named("PgSheetRepo")}
}

func (r *pgSheetRepository) GetAvailableByID(ctx context.Context, q interfaces.DBTX, sheetID uuid.UUID) (*models.Sheet, error) {
	var sheet models.Sheet
	if err := pgxscan.Get(ctx, q, &sheet, getAvailableSheetQuery, sheetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get sheet", zap.Stringer("sheetID", sheetID), zap.Error(err))
		return nil, fmt.Errorf("failed to get sheet %s: %w", sheetID, err)
	}
	return &sheet, nil
}

func (r *pgSheetRepository) ListStartSheets(ctx context.Context, q interfaces.DBTX, storyID uuid.UUID) ([]models.Sheet, error) {
	var sheets []models.Sheet
	if err := pgxscan.Select(ctx, q, &sheets, listStartSheetsQuery, storyID); err != nil {
		return nil, fmt.Errorf("failed to list start sheets of story %s: %w", storyID, err)
	}
	return sheets, nil
}

// ListAnswers читает ответы и их пути двумя запросами и собирает их в памяти.
func (r *pgSheetRepository) ListAnswers(ctx context.Context, q interfaces.DBTX, sheetID uuid.UUID) ([]models.Answer, error) {
	var answers []models.Answer
	if err := pgxscan.Select(ctx, q, &answers, listAnswersQuery, sheetID); err != nil {
		return nil, fmt.Errorf("failed to list answers of sheet %s: %w", sheetID, err)
	}
	if len(answers) == 0 {
		return answers, nil
	}

	var paths []models.Path
	if err := pgxscan.Select(ctx, q, &paths, listAnswerPathsQuery, sheetID); err != nil {
		return nil, fmt.Errorf("failed to list paths of sheet %s: %w", sheetID, err)
	}

	byAnswer := make(map[uuid.UUID]int, len(answers))
	for i := range answers {
		byAnswer[answers[i].ID] = i
	}
	for _, p := range paths {
		if i, ok := byAnswer[p.AnswerID]; ok {
			answers[i].Paths = append(answers[i].Paths, p)
		}
	}
	return answers, nil
}
