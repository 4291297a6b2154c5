package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	historyInsertColumns = `group_id, progress_id, user_id, story_id, sheet_id, sheet_version, answer_id, path_id, sheet_question, answer, submitted_answer, answer_version, status, start_time, solved_time, archived_at`
	historyColumnCount   = 16

	maxHistoryGroupQuery = `SELECT COALESCE(MAX(group_id), 0) FROM user_progress_history WHERE user_id = $1 AND story_id = $2`

	listHistoryQuery = `
SELECT id, ` + historyInsertColumns + `
FROM user_progress_history
WHERE user_id = $1 AND story_id = $2
ORDER BY group_id DESC, start_time, id`
)

var _ interfaces.HistoryRepository = (*pgHistoryRepository)(nil)

type pgHistoryRepository struct {
	logger *zap.Logger
}

func NewPgHistoryRepository(logger *zap.Logger) interfaces.HistoryRepository {
	return &pgHistoryRepository{logger: logger.Named("PgHistoryRepo")}
}

func (r *pgHistoryRepository) MaxGroupID(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (int, error) {
	var groupID int
	if err := q.QueryRow(ctx, maxHistoryGroupQuery, userID, storyID).Scan(&groupID); err != nil {
		return 0, fmt.Errorf("failed to get max history group: %w", err)
	}
	return groupID, nil
}

// InsertBatch вставляет все строки одним INSERT ... VALUES (...), (...).
func (r *pgHistoryRepository) InsertBatch(ctx context.Context, q interfaces.DBTX, groupID int, rows []models.UserProgress, archivedAt time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO user_progress_history (")
	sb.WriteString(historyInsertColumns)
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*historyColumnCount)
	for i, p := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range historyColumnCount {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*historyColumnCount+c+1)
		}
		sb.WriteByte(')')

		sheetID := p.SheetID
		args = append(args,
			groupID, p.ID, p.UserID, p.StoryID, &sheetID, p.SheetVersion, p.AnswerID, p.PathID,
			p.SheetQuestion, p.Answer, p.SubmittedAnswer, p.AnswerVersion, p.Status, p.StartTime, p.SolvedTime, archivedAt,
		)
	}

	tag, err := q.Exec(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to insert history batch", zap.Int("groupID", groupID), zap.Int("rows", len(rows)), zap.Error(err))
		return fmt.Errorf("failed to insert history batch: %w", err)
	}
	if tag.RowsAffected() != int64(len(rows)) {
		return fmt.Errorf("history batch inserted %d of %d rows", tag.RowsAffected(), len(rows))
	}
	return nil
}

func (r *pgHistoryRepository) ListByUserAndStory(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) ([]models.UserProgressHistory, error) {
	var rows []models.UserProgressHistory
	if err := pgxscan.Select(ctx, q, &rows, listHistoryQuery, userID, storyID); err != nil {
		return nil, fmt.Errorf("failed to list history of story %s: %w", storyID, err)
	}
	return rows, nil
}
