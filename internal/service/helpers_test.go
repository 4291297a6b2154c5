package service_test

import (
	"testing"

	"story-server/internal/interfaces/mocks"
	"story-server/internal/models"
	"story-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// fixedSource всегда выбирает первый элемент пула.
type fixedSource struct{}

func (fixedSource) IntN(int) int { return 0 }

type testDeps struct {
	tx            *mocks.TxManager
	stories       *mocks.StoryRepository
	sheets        *mocks.SheetRepository
	progress      *mocks.ProgressRepository
	history       *mocks.HistoryRepository
	storyProgress *mocks.StoryProgressRepository
	subscribers   *mocks.SubscriberRepository
	notifier      *mocks.SolvedNotifier
	throttle      *mocks.AnswerThrottle
}

func newTestDeps() *testDeps {
	return &testDeps{
		tx:            new(mocks.TxManager),
		stories:       new(mocks.StoryRepository),
		sheets:        new(mocks.SheetRepository),
		progress:      new(mocks.ProgressRepository),
		history:       new(mocks.HistoryRepository),
		storyProgress: new(mocks.StoryProgressRepository),
		subscribers:   new(mocks.SubscriberRepository),
		notifier:      new(mocks.SolvedNotifier),
		throttle:      new(mocks.AnswerThrottle),
	}
}

func (d *testDeps) service() service.PlayService {
	return service.NewPlayService(service.PlayDeps{
		TxManager:         d.tx,
		StoryRepo:         d.stories,
		SheetRepo:         d.sheets,
		ProgressRepo:      d.progress,
		HistoryRepo:       d.history,
		StoryProgressRepo: d.storyProgress,
		SubscriberRepo:    d.subscribers,
		Notifier:          d.notifier,
		Throttle:          d.throttle,
		Random:            fixedSource{},
		Logger:            zap.NewNop(),
	})
}

func (d *testDeps) assertExpectations(t *testing.T) {
	t.Helper()
	mock.AssertExpectationsForObjects(t,
		d.tx, d.stories, d.sheets, d.progress, d.history,
		d.storyProgress, d.subscribers, d.notifier, d.throttle,
	)
}

// fixture - маленький граф: start --("red door")--> second.
type fixture struct {
	userID  uuid.UUID
	story   *models.Story
	start   *models.Sheet
	second  *models.Sheet
	red     models.Answer
	toNext  models.Path
	started *models.UserStoryProgress
}

func newFixture() *fixture {
	f := &fixture{userID: uuid.New()}
	f.story = &models.Story{ID: uuid.New(), AuthorID: uuid.New(), Title: "The House", IsDisplayable: true}
	f.start = &models.Sheet{ID: uuid.New(), StoryID: f.story.ID, Title: "Hall", Question: "Which door?", Version: 1, IsStart: true}
	f.second = &models.Sheet{ID: uuid.New(), StoryID: f.story.ID, Title: "Attic", Question: "What now?", Version: 1, IsFinal: true}
	f.red = models.Answer{ID: uuid.New(), SheetID: f.start.ID, Text: "Red Door", Reply: "It creaks open", Version: 2}
	f.toNext = models.Path{ID: uuid.New(), AnswerID: f.red.ID, NextSheetID: f.second.ID, Quantity: 1}
	f.red.Paths = []models.Path{f.toNext}
	f.started = &models.UserStoryProgress{ID: uuid.New(), UserID: f.userID, StoryID: f.story.ID, Status: models.StoryProgressSolving}
	return f
}

func (f *fixture) liveProgress(sheet *models.Sheet) *models.UserProgress {
	return &models.UserProgress{
		ID:            uuid.New(),
		UserID:        f.userID,
		StoryID:       f.story.ID,
		SheetID:       sheet.ID,
		SheetVersion:  sheet.Version,
		SheetQuestion: sheet.Question,
		Status:        models.ProgressSolving,
	}
}

// solvedStart - решенная запись стартового листа, путь которой ведет на second.
func (f *fixture) solvedStart(answerText string) models.UserProgress {
	p := f.liveProgress(f.start)
	p.Status = models.ProgressSolved
	p.Answer = answerText
	p.AnswerID = &f.red.ID
	p.PathID = &f.toNext.ID
	return *p
}
