package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressStatus - статус прохождения одного листа.
type ProgressStatus string

const (
	ProgressSolving ProgressStatus = "solving"
	ProgressSolved  ProgressStatus = "solved"
)

// StoryProgressStatus - агрегированный статус прохождения истории.
type StoryProgressStatus string

const (
	StoryProgressSolving StoryProgressStatus = "solving"
	StoryProgressGivenUp StoryProgressStatus = "given_up"
	StoryProgressSolved  StoryProgressStatus = "solved"
)

// UserProgress - живое состояние пользователя на листе (одна запись на user x sheet x sheet.version).
// Снимки текста вопроса/ответа и версии замораживаются в момент решения.
type UserProgress struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"userId"`
	StoryID         uuid.UUID      `db:"story_id" json:"storyId"`
	SheetID         uuid.UUID      `db:"sheet_id" json:"sheetId"`
	SheetVersion    int            `db:"sheet_version" json:"sheetVersion"`
	AnswerID        *uuid.UUID     `db:"answer_id" json:"answerId,omitempty"`
	PathID          *uuid.UUID     `db:"path_id" json:"pathId,omitempty"`
	SheetQuestion   string         `db:"sheet_question" json:"sheetQuestion"`
	Answer          string         `db:"answer" json:"answer"`
	SubmittedAnswer string         `db:"submitted_answer" json:"submittedAnswer"`
	AnswerVersion   *int           `db:"answer_version" json:"answerVersion,omitempty"`
	Status          ProgressStatus `db:"status" json:"status"`
	StartTime       time.Time      `db:"start_time" json:"startTime"`
	SolvedTime      *time.Time     `db:"solved_time" json:"solvedTime,omitempty"`
}

// IsSolved сообщает, находится ли запись в конечном состоянии.
func (p *UserProgress) IsSolved() bool {
	return p.Status == ProgressSolved
}

// UserProgressHistory - неизменяемый архив UserProgress.
// Ссылки на sheet/answer/path могут стать NULL после удаления сущностей и никогда не разрешаются заново.
type UserProgressHistory struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	GroupID         int            `db:"group_id" json:"groupId"`
	ProgressID      uuid.UUID      `db:"progress_id" json:"progressId"`
	UserID          uuid.UUID      `db:"user_id" json:"userId"`
	StoryID         uuid.UUID      `db:"story_id" json:"storyId"`
	SheetID         *uuid.UUID     `db:"sheet_id" json:"sheetId,omitempty"`
	SheetVersion    int            `db:"sheet_version" json:"sheetVersion"`
	AnswerID        *uuid.UUID     `db:"answer_id" json:"answerId,omitempty"`
	PathID          *uuid.UUID     `db:"path_id" json:"pathId,omitempty"`
	SheetQuestion   string         `db:"sheet_question" json:"sheetQuestion"`
	Answer          string         `db:"answer" json:"answer"`
	SubmittedAnswer string         `db:"submitted_answer" json:"submittedAnswer"`
	AnswerVersion   *int           `db:"answer_version" json:"answerVersion,omitempty"`
	Status          ProgressStatus `db:"status" json:"status"`
	StartTime       time.Time      `db:"start_time" json:"startTime"`
	SolvedTime      *time.Time     `db:"solved_time" json:"solvedTime,omitempty"`
	ArchivedAt      time.Time      `db:"archived_at" json:"archivedAt"`
}

// UserStoryProgress - агрегат по паре (user, story).
type UserStoryProgress struct {
	ID        uuid.UUID           `db:"id" json:"id"`
	UserID    uuid.UUID           `db:"user_id" json:"userId"`
	StoryID   uuid.UUID           `db:"story_id" json:"storyId"`
	Status    StoryProgressStatus `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `db:"updated_at" json:"updatedAt"`
}
