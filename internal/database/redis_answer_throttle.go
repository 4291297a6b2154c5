package database

import (
	"context"
	"fmt"
	"time"

	"story-server/internal/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.AnswerThrottle = (*redisAnswerThrottle)(nil)

// redisAnswerThrottle - счетчик попыток в фиксированном окне.
// Ключ answer_attempts:{userID}:{sheetID} живет window с момента первой попытки.
// Ключ без TTL получает его при следующей попытке.
type redisAnswerThrottle struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// NewRedisAnswerThrottle создает ограничитель. limit <= 0 отключает ограничение.
func NewRedisAnswerThrottle(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) interfaces.AnswerThrottle {
	return &redisAnswerThrottle{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger.Named("RedisAnswerThrottle"),
	}
}

func (t *redisAnswerThrottle) Allow(ctx context.Context, userID, sheetID uuid.UUID) (bool, error) {
	if t.limit <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("answer_attempts:%s:%s", userID, sheetID)

	// INCR и EXPIRE NX в одном MULTI: ключ без TTL не переживает сбой между командами.
	var incr *redis.IntCmd
	if _, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, t.window)
		return nil
	}); err != nil {
		return false, fmt.Errorf("failed to increment answer attempts: %w", err)
	}
	attempts := incr.Val()

	if attempts > t.limit {
		t.logger.Info("Answer attempts limit reached",
			zap.Stringer("userID", userID),
			zap.Stringer("sheetID", sheetID),
			zap.Int64("attempts", attempts),
		)
		return false, nil
	}
	return true, nil
}
