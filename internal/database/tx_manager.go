package database

import (
	"context"
	"fmt"

	"story-server/internal/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ interfaces.TxManager = (*pgTxManager)(nil)

type pgTxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgTxManager(pool *pgxpool.Pool, logger *zap.Logger) interfaces.TxManager {
	return &pgTxManager{pool: pool, logger: logger.Named("PgTxManager")}
}

// WithTx выполняет fn в рамках транзакции, коммитит при успехе или откатывает при ошибке.
func (m *pgTxManager) WithTx(ctx context.Context, fn func(tx interfaces.DBTX) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	// Откат при панике
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.Background())
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			m.logger.Warn("Failed to rollback tx", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}
