package models

import (
	"time"

	"github.com/google/uuid"
)

// SheetSolvedEvent публикуется после коммита решения листа.
// Получатели - подписчики истории по e-mail.
type SheetSolvedEvent struct {
	ProgressID uuid.UUID `json:"progress_id"`
	UserID     uuid.UUID `json:"user_id"`
	StoryID    uuid.UUID `json:"story_id"`
	SheetID    uuid.UUID `json:"sheet_id"`
	StoryTitle string    `json:"story_title"`
	SheetTitle string    `json:"sheet_title"`
	Recipients []string  `json:"recipients"`
	SolvedAt   time.Time `json:"solved_at"`
}
