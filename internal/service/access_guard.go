package service

import (
	"context"
	"fmt"

	"story-server/internal/engine"
	"story-server/internal/interfaces"
	"story-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessGuard не дает открыть лист, к которому пользователь не пришел по графу.
type AccessGuard struct {
	progressRepo interfaces.ProgressRepository
	sheetRepo    interfaces.SheetRepository
	logger       *zap.Logger
}

func NewAccessGuard(progressRepo interfaces.ProgressRepository, sheetRepo interfaces.SheetRepository, logger *zap.Logger) *AccessGuard {
	return &AccessGuard{
		progressRepo: progressRepo,
		sheetRepo:    sheetRepo,
		logger:       logger.Named("AccessGuard"),
	}
}

// AssertReachable возвращает nil, если sheet стартовый или на него ведет путь решенного
// пользователем листа, ответ которого до сих пор есть среди текущих ответов исходного листа.
// Иначе ErrSheetNotAccessible.
func (g *AccessGuard) AssertReachable(ctx context.Context, q interfaces.DBTX, userID uuid.UUID, sheet *models.Sheet) error {
	if sheet.IsStart {
		return nil
	}
	logFields := []zap.Field{zap.Stringer("userID", userID), zap.Stringer("sheetID", sheet.ID)}

	incoming, err := g.progressRepo.ListSolvedLeadingTo(ctx, q, userID, sheet.ID)
	if err != nil {
		g.logger.Error("Failed to list incoming progress", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to list incoming progress: %w", err)
	}

	for _, origin := range incoming {
		answers, err := g.sheetRepo.ListAnswers(ctx, q, origin.SheetID)
		if err != nil {
			g.logger.Error("Failed to list origin answers", append(logFields, zap.Stringer("originSheetID", origin.SheetID), zap.Error(err))...)
			return fmt.Errorf("failed to list answers of sheet %s: %w", origin.SheetID, err)
		}
		if engine.ContainsNormalized(origin.Answer, answers) {
			return nil
		}
	}

	g.logger.Info("Sheet access denied", append(logFields, zap.Int("incomingCount", len(incoming)))...)
	return models.ErrSheetNotAccessible
}
