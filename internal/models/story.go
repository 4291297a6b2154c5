package models

import (
	"time"

	"github.com/google/uuid"
)

// Story - повествовательная единица, граф листов (sheets).
// Никогда не удаляется физически, только через is_deleted.
type Story struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AuthorID      uuid.UUID `db:"author_id" json:"authorId"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	IsDeleted     bool      `db:"is_deleted" json:"-"`
	IsDisplayable bool      `db:"is_displayable" json:"isDisplayable"`
	IsSecret      bool      `db:"is_secret" json:"isSecret"`
	PlayCount     int64     `db:"play_count" json:"playCount"`
	LikeCount     int64     `db:"like_count" json:"likeCount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Sheet - узел графа истории (вопрос).
type Sheet struct {
	ID        uuid.UUID `db:"id" json:"id"`
	StoryID   uuid.UUID `db:"story_id" json:"storyId"`
	Title     string    `db:"title" json:"title"`
	Question  string    `db:"question" json:"question"`
	Version   int       `db:"version" json:"version"` // Увеличивается при каждом редактировании вопроса
	IsStart   bool      `db:"is_start" json:"isStart"`
	IsFinal   bool      `db:"is_final" json:"isFinal"`
	IsDeleted bool      `db:"is_deleted" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Answer - принимаемый ответ на лист. IsAlwaysCorrect означает "подходит любой ввод".
type Answer struct {
	ID              uuid.UUID `db:"id" json:"id"`
	SheetID         uuid.UUID `db:"sheet_id" json:"sheetId"`
	Text            string    `db:"answer" json:"answer"`
	Reply           string    `db:"reply" json:"reply,omitempty"`
	Version         int       `db:"version" json:"version"`
	IsAlwaysCorrect bool      `db:"is_always_correct" json:"isAlwaysCorrect"`
	IsDeleted       bool      `db:"is_deleted" json:"-"`
	Paths           []Path    `db:"-" json:"paths"`
}

// Path - взвешенное ребро от ответа к следующему листу.
// Quantity - относительный вес, 0 делает путь недостижимым.
type Path struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AnswerID    uuid.UUID `db:"answer_id" json:"answerId"`
	NextSheetID uuid.UUID `db:"next_sheet_id" json:"nextSheetId"`
	Quantity    int       `db:"quantity" json:"quantity"`
}
