package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"story-server/internal/engine"
	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notifyTimeout = 5 * time.Second

// PlayService - сценарии прохождения истории пользователем.
type PlayService interface {
	PlayStory(ctx context.Context, userID, storyID uuid.UUID) (*PlayStart, error)
	GetSheet(ctx context.Context, userID, sheetID uuid.UUID) (*SheetView, error)
	SubmitAnswer(ctx context.Context, userID, sheetID uuid.UUID, answer string) (*SubmitResult, error)
	ResetProgress(ctx context.Context, userID, storyID uuid.UUID) (bool, error)
	GiveUp(ctx context.Context, userID, storyID uuid.UUID) error
	ListHistory(ctx context.Context, userID, storyID uuid.UUID) ([]models.UserProgressHistory, error)
	// Shutdown ждет фоновые уведомления о решенных листах, пока не истечет ctx.
	Shutdown(ctx context.Context) error
}

// PlayStart - результат начала (или продолжения) истории.
type PlayStart struct {
	Story         *models.Story             `json:"story"`
	StoryProgress *models.UserStoryProgress `json:"storyProgress"`
	StartSheet    *models.Sheet             `json:"startSheet"`
	Progress      *models.UserProgress      `json:"progress"`
}

// SheetView - лист глазами игрока.
type SheetView struct {
	SheetID     uuid.UUID             `json:"sheetId"`
	StoryID     uuid.UUID             `json:"storyId"`
	Title       string                `json:"title"`
	Question    string                `json:"question"`
	IsFinal     bool                  `json:"isFinal"`
	Status      models.ProgressStatus `json:"status"`
	Reply       string                `json:"reply,omitempty"`
	NextSheetID *uuid.UUID            `json:"nextSheetId,omitempty"`
}

// SubmitResult - итог попытки ответа. При Correct = false ничего не записывается.
type SubmitResult struct {
	Correct     bool                 `json:"correct"`
	Reply       string               `json:"reply,omitempty"`
	NextSheetID *uuid.UUID           `json:"nextSheetId,omitempty"`
	StorySolved bool                 `json:"storySolved"`
	Progress    *models.UserProgress `json:"progress,omitempty"`
}

// PlayDeps - зависимости PlayService.
type PlayDeps struct {
	DB                interfaces.DBTX
	TxManager         interfaces.TxManager
	StoryRepo         interfaces.StoryRepository
	SheetRepo         interfaces.SheetRepository
	ProgressRepo      interfaces.ProgressRepository
	HistoryRepo       interfaces.HistoryRepository
	StoryProgressRepo interfaces.StoryProgressRepository
	SubscriberRepo    interfaces.SubscriberRepository
	Notifier          interfaces.SolvedNotifier // может быть nil
	Throttle          interfaces.AnswerThrottle // может быть nil
	Random            engine.RandomSource
	Logger            *zap.Logger
}

type playServiceImpl struct {
	db                interfaces.DBTX
	txManager         interfaces.TxManager
	storyRepo         interfaces.StoryRepository
	sheetRepo         interfaces.SheetRepository
	historyRepo       interfaces.HistoryRepository
	storyProgressRepo interfaces.StoryProgressRepository
	subscriberRepo    interfaces.SubscriberRepository
	notifier          interfaces.SolvedNotifier
	throttle          interfaces.AnswerThrottle
	rnd               engine.RandomSource

	machine  *ProgressStateMachine
	guard    *AccessGuard
	archiver *HistoryArchiver
	logger   *zap.Logger

	notifyWG sync.WaitGroup
}

var _ PlayService = (*playServiceImpl)(nil)

func NewPlayService(deps PlayDeps) PlayService {
	rnd := deps.Random
	if rnd == nil {
		rnd = engine.DefaultRandomSource()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &playServiceImpl{
		db:                deps.DB,
		txManager:         deps.TxManager,
		storyRepo:         deps.StoryRepo,
		sheetRepo:         deps.SheetRepo,
		historyRepo:       deps.HistoryRepo,
		storyProgressRepo: deps.StoryProgressRepo,
		subscriberRepo:    deps.SubscriberRepo,
		notifier:          deps.Notifier,
		throttle:          deps.Throttle,
		rnd:               rnd,
		machine:           NewProgressStateMachine(deps.ProgressRepo, deps.StoryProgressRepo, logger),
		guard:             NewAccessGuard(deps.ProgressRepo, deps.SheetRepo, logger),
		archiver:          NewHistoryArchiver(deps.TxManager, deps.ProgressRepo, deps.HistoryRepo, deps.StoryProgressRepo, logger),
		logger:            logger.Named("PlayService"),
	}
}

// PlayStory начинает историю: проверяет доступность и единственность стартового листа,
// при первом запуске создает UserStoryProgress и увеличивает play_count.
func (s *playServiceImpl) PlayStory(ctx context.Context, userID, storyID uuid.UUID) (*PlayStart, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID)}

	story, err := s.loadAvailableStory(ctx, s.db, userID, storyID)
	if err != nil {
		return nil, err
	}

	starts, err := s.sheetRepo.ListStartSheets(ctx, s.db, storyID)
	if err != nil {
		s.logger.Error("Failed to list start sheets", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to list start sheets: %w", err)
	}
	if len(starts) != 1 {
		s.logger.Warn("Story start sheet is not unique", append(logFields, zap.Int("startSheets", len(starts)))...)
		return nil, models.ErrStartSheetMissing
	}
	startSheet := starts[0]

	result := &PlayStart{Story: story, StartSheet: &startSheet}
	err = s.txManager.WithTx(ctx, func(tx interfaces.DBTX) error {
		now := time.Now().UTC()
		created, err := s.storyProgressRepo.Create(ctx, tx, &models.UserStoryProgress{
			ID:        uuid.New(),
			UserID:    userID,
			StoryID:   storyID,
			Status:    models.StoryProgressSolving,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to create story progress: %w", err)
		}
		if created {
			if err := s.storyRepo.IncrementPlayCount(ctx, tx, storyID); err != nil {
				return fmt.Errorf("failed to increment play count: %w", err)
			}
		}

		result.StoryProgress, err = s.storyProgressRepo.Get(ctx, tx, userID, storyID)
		if err != nil {
			return fmt.Errorf("failed to get story progress: %w", err)
		}
		result.Progress, err = s.machine.EnsureStarted(ctx, tx, userID, &startSheet)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to start story", append(logFields, zap.Error(err))...)
		return nil, err
	}

	s.logger.Info("Story started", append(logFields, zap.Stringer("startSheetID", startSheet.ID))...)
	return result, nil
}

// GetSheet отдает содержимое листа после проверки доступа. Для решенного листа
// дополнительно возвращаются реплика выбранного ответа и следующий лист.
func (s *playServiceImpl) GetSheet(ctx context.Context, userID, sheetID uuid.UUID) (*SheetView, error) {
	sheet, _, err := s.loadPlayableSheet(ctx, userID, sheetID)
	if err != nil {
		return nil, err
	}

	progress, err := s.machine.EnsureStarted(ctx, s.db, userID, sheet)
	if err != nil {
		return nil, err
	}

	view := &SheetView{
		SheetID:  sheet.ID,
		StoryID:  sheet.StoryID,
		Title:    sheet.Title,
		Question: sheet.Question,
		IsFinal:  sheet.IsFinal,
		Status:   progress.Status,
	}
	if !progress.IsSolved() {
		return view, nil
	}

	answers, err := s.sheetRepo.ListAnswers(ctx, s.db, sheet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	view.Reply, view.NextSheetID = lookupChoice(answers, progress)
	return view, nil
}

// SubmitAnswer проверяет ответ и при совпадении фиксирует решение в одной транзакции.
func (s *playServiceImpl) SubmitAnswer(ctx context.Context, userID, sheetID uuid.UUID, submitted string) (*SubmitResult, error) {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("sheetID", sheetID)}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, userID, sheetID)
		if err != nil {
			// Недоступность Redis не должна блокировать игру.
			s.logger.Warn("Answer throttle unavailable", append(logFields, zap.Error(err))...)
		} else if !allowed {
			return nil, models.ErrTooManyAttempts
		}
	}

	sheet, story, err := s.loadPlayableSheet(ctx, userID, sheetID)
	if err != nil {
		return nil, err
	}

	live, err := s.machine.progressRepo.GetLive(ctx, s.db, userID, sheet.ID, sheet.Version)
	switch {
	case err == nil && live.IsSolved():
		return nil, models.ErrAlreadySolved
	case err != nil && !errors.Is(err, models.ErrNotFound):
		s.logger.Error("Failed to get live progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get live progress: %w", err)
	}

	answers, err := s.sheetRepo.ListAnswers(ctx, s.db, sheet.ID)
	if err != nil {
		s.logger.Error("Failed to list answers", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	resolution := engine.ResolvePath(engine.MatchCandidates(submitted, answers), s.rnd)
	if !resolution.IsValid {
		s.logger.Debug("Answer rejected", logFields...)
		return &SubmitResult{Correct: false}, nil
	}

	result := &SubmitResult{
		Correct:     true,
		Reply:       resolution.Answer.Reply,
		NextSheetID: resolution.NextSheetID(),
	}
	err = s.txManager.WithTx(ctx, func(tx interfaces.DBTX) error {
		progress, err := s.machine.EnsureStarted(ctx, tx, userID, sheet)
		if err != nil {
			return err
		}
		result.Progress, err = s.machine.CommitSolved(ctx, tx, progress.ID, sheet, resolution, submitted)
		if err != nil {
			return err
		}
		if sheet.IsFinal {
			if err := s.storyProgressRepo.UpdateStatus(ctx, tx, userID, sheet.StoryID, models.StoryProgressSolved); err != nil {
				return fmt.Errorf("failed to mark story solved: %w", err)
			}
			result.StorySolved = true
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, models.ErrAlreadySolved) && !errors.Is(err, models.ErrStoryNotStarted) {
			s.logger.Error("Failed to commit answer", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	if s.notifier != nil && result.Progress != nil {
		solved := *result.Progress
		s.notifyWG.Add(1)
		go func() {
			defer s.notifyWG.Done()
			s.notifySolved(ctx, story, sheet, &solved)
		}()
	}
	return result, nil
}

func (s *playServiceImpl) ResetProgress(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	return s.archiver.ResetProgress(ctx, userID, storyID)
}

// GiveUp помечает историю как брошенную. Решенную историю бросить нельзя.
func (s *playServiceImpl) GiveUp(ctx context.Context, userID, storyID uuid.UUID) error {
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("storyID", storyID)}

	return s.txManager.WithTx(ctx, func(tx interfaces.DBTX) error {
		current, err := s.storyProgressRepo.GetForUpdate(ctx, tx, userID, storyID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrStoryNotStarted
			}
			s.logger.Error("Failed to lock story progress", append(logFields, zap.Error(err))...)
			return fmt.Errorf("failed to lock story progress: %w", err)
		}
		switch current.Status {
		case models.StoryProgressSolved:
			return models.ErrAlreadySolved
		case models.StoryProgressGivenUp:
			return nil
		}
		if err := s.storyProgressRepo.UpdateStatus(ctx, tx, userID, storyID, models.StoryProgressGivenUp); err != nil {
			return fmt.Errorf("failed to give up story: %w", err)
		}
		s.logger.Info("Story given up", logFields...)
		return nil
	})
}

func (s *playServiceImpl) ListHistory(ctx context.Context, userID, storyID uuid.UUID) ([]models.UserProgressHistory, error) {
	rows, err := s.historyRepo.ListByUserAndStory(ctx, s.db, userID, storyID)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Stringer("userID", userID), zap.Stringer("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if rows == nil {
		rows = []models.UserProgressHistory{}
	}
	return rows, nil
}

// loadAvailableStory возвращает историю, если она не удалена, отображается и видна пользователю.
func (s *playServiceImpl) loadAvailableStory(ctx context.Context, q interfaces.DBTX, userID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, q, storyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrStoryUnavailable
		}
		s.logger.Error("Failed to get story", zap.Stringer("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	if story.IsDeleted || !story.IsDisplayable {
		return nil, models.ErrStoryUnavailable
	}
	if story.IsSecret && story.AuthorID != userID {
		allowed, err := s.storyRepo.IsAllowedViewer(ctx, q, storyID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check story viewer: %w", err)
		}
		if !allowed {
			return nil, models.ErrStoryUnavailable
		}
	}
	return story, nil
}

// loadPlayableSheet - общий пролог GetSheet и SubmitAnswer: лист доступен, история видна, граф пройден.
func (s *playServiceImpl) loadPlayableSheet(ctx context.Context, userID, sheetID uuid.UUID) (*models.Sheet, *models.Story, error) {
	sheet, err := s.sheetRepo.GetAvailableByID(ctx, s.db, sheetID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrSheetUnavailable
		}
		return nil, nil, fmt.Errorf("failed to get sheet: %w", err)
	}
	story, err := s.loadAvailableStory(ctx, s.db, userID, sheet.StoryID)
	if err != nil {
		if errors.Is(err, models.ErrStoryUnavailable) {
			return nil, nil, models.ErrSheetUnavailable
		}
		return nil, nil, err
	}
	if err := s.guard.AssertReachable(ctx, s.db, userID, sheet); err != nil {
		return nil, nil, err
	}
	return sheet, story, nil
}

func (s *playServiceImpl) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifyWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Pending solved notifications abandoned", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// notifySolved публикует событие после коммита. Ответ клиенту его не ждет, ошибки только логируются.
func (s *playServiceImpl) notifySolved(ctx context.Context, story *models.Story, sheet *models.Sheet, progress *models.UserProgress) {
	logFields := []zap.Field{zap.Stringer("progressID", progress.ID), zap.Stringer("storyID", story.ID)}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	recipients, err := s.subscriberRepo.ListEmails(notifyCtx, s.db, story.ID)
	if err != nil {
		s.logger.Warn("Failed to list story subscribers", append(logFields, zap.Error(err))...)
		return
	}
	if len(recipients) == 0 {
		return
	}

	event := models.SheetSolvedEvent{
		ProgressID: progress.ID,
		UserID:     progress.UserID,
		StoryID:    story.ID,
		SheetID:    sheet.ID,
		StoryTitle: story.Title,
		SheetTitle: sheet.Title,
		Recipients: recipients,
		SolvedAt:   time.Now().UTC(),
	}
	if progress.SolvedTime != nil {
		event.SolvedAt = *progress.SolvedTime
	}
	if err := s.notifier.PublishSheetSolved(notifyCtx, event); err != nil {
		s.logger.Error("Failed to publish sheet solved event", append(logFields, zap.Error(err))...)
	}
}

// lookupChoice находит реплику и следующий лист по выбранным ответу и пути.
// Удаленные с тех пор ответ или путь дают пустые значения.
func lookupChoice(answers []models.Answer, progress *models.UserProgress) (string, *uuid.UUID) {
	if progress.AnswerID == nil {
		return "", nil
	}
	for _, a := range answers {
		if a.ID != *progress.AnswerID {
			continue
		}
		if progress.PathID == nil {
			return a.Reply, nil
		}
		for _, p := range a.Paths {
			if p.ID == *progress.PathID {
				next := p.NextSheetID
				return a.Reply, &next
			}
		}
		return a.Reply, nil
	}
	return "", nil
}
