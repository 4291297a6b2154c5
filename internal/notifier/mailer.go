package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-server/internal/messaging"
	"story-server/internal/models"

	"go.uber.org/zap"
)

// SolvedMailer рассылает письмо о решенном листе каждому подписчику истории.
type SolvedMailer struct {
	sender Sender
	logger *zap.Logger
}

var _ messaging.SolvedEventHandler = (*SolvedMailer)(nil)

func NewSolvedMailer(sender Sender, logger *zap.Logger) *SolvedMailer {
	return &SolvedMailer{
		sender: sender,
		logger: logger.Named("SolvedMailer"),
	}
}

// HandleSheetSolved отправляет письма всем получателям и возвращает объединенную ошибку,
// если хотя бы одна отправка не удалась.
func (m *SolvedMailer) HandleSheetSolved(ctx context.Context, event models.SheetSolvedEvent) error {
	if len(event.Recipients) == 0 {
		m.logger.Debug("Sheet solved event without recipients", zap.String("progressID", event.ProgressID.String()))
		return nil
	}

	subject, body := composeSolvedMail(event)
	var errs []error
	for _, to := range event.Recipients {
		if err := m.sender.Send(ctx, Mail{To: to, Subject: subject, Body: body}); err != nil {
			m.logger.Warn("Failed to send solved notification",
				zap.String("to", to),
				zap.String("progressID", event.ProgressID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d notifications failed: %w", len(errs), len(event.Recipients), errors.Join(errs...))
	}
	return nil
}

func composeSolvedMail(event models.SheetSolvedEvent) (string, string) {
	subject := fmt.Sprintf("Sheet solved in \"%s\"", event.StoryTitle)
	body := fmt.Sprintf(
		"A player has solved the sheet \"%s\" of the story \"%s\".\n\nPlayer: %s\nSolved at: %s\n",
		event.SheetTitle,
		event.StoryTitle,
		event.UserID,
		event.SolvedAt.UTC().Format(time.RFC3339),
	)
	return subject, body
}
