package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryArchiver переносит живой прогресс (user, story) в архив и очищает его.
type HistoryArchiver struct {
	txManager         interfaces.TxManager
	progressRepo      interfaces.ProgressRepository
	historyRepo       interfaces.HistoryRepository
	storyProgressRepo interfaces.StoryProgressRepository
	logger            *zap.Logger
}

func NewHistoryArchiver(
	txManager interfaces.TxManager,
	progressRepo interfaces.ProgressRepository,
	historyRepo interfaces.HistoryRepository,
	storyProgressRepo interfaces.StoryProgressRepository,
	logger *zap.Logger,
) *HistoryArchiver {
	return &HistoryArchiver{
		txManager:         txManager,
		progressRepo:      progressRepo,
		historyRepo:       historyRepo,
		storyProgressRepo: storyProgressRepo,
		logger:            logger.Named("HistoryArchiver"),
	}
}

// ResetProgress архивирует все живые записи одной группой и удаляет их в той же транзакции.
// Возвращает false, если архивировать нечего. UserStoryProgress не меняется.
func (a *HistoryArchiver) ResetProgress(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID)}
	archived := false
	var groupID int

	err := a.txManager.WithTx(ctx, func(tx interfaces.DBTX) error {
		if _, err := a.storyProgressRepo.GetForUpdate(ctx, tx, userID, storyID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to lock story progress: %w", err)
		}

		rows, err := a.progressRepo.ListByUserAndStoryForUpdate(ctx, tx, userID, storyID)
		if err != nil {
			return fmt.Errorf("failed to lock live progress: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		maxGroupID, err := a.historyRepo.MaxGroupID(ctx, tx, userID, storyID)
		if err != nil {
			return fmt.Errorf("failed to get max history group: %w", err)
		}
		groupID = maxGroupID + 1

		if err := a.historyRepo.InsertBatch(ctx, tx, groupID, rows, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to archive progress: %w", err)
		}
		// Удаляются только заблокированные и заархивированные строки. Запись, созданная
		// параллельно после выборки, остается живой и уйдет в архив следующим сбросом.
		ids := make([]uuid.UUID, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		deleted, err := a.progressRepo.DeleteByIDs(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("failed to clear live progress: %w", err)
		}
		if deleted != int64(len(ids)) {
			return fmt.Errorf("cleared %d of %d archived progress rows", deleted, len(ids))
		}
		archived = true
		return nil
	})
	if err != nil {
		a.logger.Error("Failed to reset progress", append(logFields, zap.Error(err))...)
		return false, err
	}

	if archived {
		a.logger.Info("Progress archived", append(logFields, zap.Int("groupID", groupID))...)
	} else {
		a.logger.Debug("Nothing to archive", logFields...)
	}
	return archived, nil
}
