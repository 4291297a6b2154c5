package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-server/internal/engine"
	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressStateMachine ведет запись UserProgress по переходу solving -> solved.
// Обратного перехода нет: решенная запись исчезает только при архивации.
type ProgressStateMachine struct {
	progressRepo      interfaces.ProgressRepository
	storyProgressRepo interfaces.StoryProgressRepository
	logger            *zap.Logger
}

func NewProgressStateMachine(
	progressRepo interfaces.ProgressRepository,
	storyProgressRepo interfaces.StoryProgressRepository,
	logger *zap.Logger,
) *ProgressStateMachine {
	return &ProgressStateMachine{
		progressRepo:      progressRepo,
		storyProgressRepo: storyProgressRepo,
		logger:            logger.Named("ProgressStateMachine"),
	}
}

// EnsureStarted возвращает живую запись для (user, sheet, sheet.Version), создавая ее при необходимости.
// Пользователь должен был начать историю через PlayStory, иначе ErrStoryNotStarted.
func (m *ProgressStateMachine) EnsureStarted(ctx context.Context, q interfaces.DBTX, userID uuid.UUID, sheet *models.Sheet) (*models.UserProgress, error) {
	logFields := []zap.Field{
		zap.Stringer("userID", userID),
		zap.Stringer("sheetID", sheet.ID),
		zap.Int("sheetVersion", sheet.Version),
	}

	if _, err := m.storyProgressRepo.Get(ctx, q, userID, sheet.StoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrStoryNotStarted
		}
		m.logger.Error("Failed to get story progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get story progress: %w", err)
	}

	progress, err := m.progressRepo.GetLive(ctx, q, userID, sheet.ID, sheet.Version)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		m.logger.Error("Failed to get live progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get live progress: %w", err)
	}

	progress, err = m.progressRepo.Create(ctx, q, &models.UserProgress{
		ID:            uuid.New(),
		UserID:        userID,
		StoryID:       sheet.StoryID,
		SheetID:       sheet.ID,
		SheetVersion:  sheet.Version,
		SheetQuestion: sheet.Question,
		Status:        models.ProgressSolving,
		StartTime:     time.Now().UTC(),
	})
	if err != nil {
		m.logger.Error("Failed to create progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	m.logger.Debug("Progress started", append(logFields, zap.Stringer("progressID", progress.ID))...)
	return progress, nil
}

// CommitSolved фиксирует решение. Вызывается внутри транзакции: запись перечитывается FOR UPDATE,
// и если она уже решена, возвращается ErrAlreadySolved без изменений.
func (m *ProgressStateMachine) CommitSolved(
	ctx context.Context,
	q interfaces.DBTX,
	progressID uuid.UUID,
	sheet *models.Sheet,
	resolution engine.Resolution,
	submitted string,
) (*models.UserProgress, error) {
	if !resolution.IsValid || resolution.Answer == nil {
		return nil, fmt.Errorf("cannot commit progress %s: resolution is not valid", progressID)
	}
	logFields := []zap.Field{zap.Stringer("progressID", progressID), zap.Stringer("sheetID", sheet.ID)}

	progress, err := m.progressRepo.GetByIDForUpdate(ctx, q, progressID)
	if err != nil {
		m.logger.Error("Failed to lock progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to lock progress %s: %w", progressID, err)
	}
	if progress.IsSolved() {
		return nil, models.ErrAlreadySolved
	}

	solvedAt := time.Now().UTC()
	answerID := resolution.Answer.ID
	answerVersion := resolution.Answer.Version

	progress.Status = models.ProgressSolved
	progress.SolvedTime = &solvedAt
	progress.SheetQuestion = sheet.Question
	progress.SheetVersion = sheet.Version
	progress.AnswerID = &answerID
	progress.Answer = resolution.Answer.Text
	progress.AnswerVersion = &answerVersion
	progress.SubmittedAnswer = submitted
	progress.PathID = nil
	if resolution.Path != nil {
		pathID := resolution.Path.ID
		progress.PathID = &pathID
	}

	if err := m.progressRepo.MarkSolved(ctx, q, progress); err != nil {
		if errors.Is(err, models.ErrAlreadySolved) {
			return nil, err
		}
		m.logger.Error("Failed to mark progress solved", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to mark progress %s solved: %w", progressID, err)
	}

	m.logger.Info("Sheet solved", append(logFields, zap.Stringer("userID", progress.UserID), zap.Bool("terminal", progress.PathID == nil))...)
	return progress, nil
}
