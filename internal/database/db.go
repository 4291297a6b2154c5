package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectMaxRetries = 10
	connectRetryDelay = 3 * time.Second
)

// NewPool создает пул соединений и ждет, пока база ответит на ping.
func NewPool(ctx context.Context, cfg Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	logger.Info("Attempting to connect to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("max_retries", connectMaxRetries),
	)

	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = fmt.Errorf("unable to connect to postgres (attempt %d/%d): %w", attempt, connectMaxRetries, err)
		logger.Warn("Postgres connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))

		if err := sleepCtx(ctx, connectRetryDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", connectMaxRetries, lastErr)
}

// NewRedisClient создает клиент Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, opts *redis.Options, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(opts)

	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("Successfully connected and pinged Redis", zap.String("addr", opts.Addr), zap.Int("attempt", attempt))
			return client, nil
		}
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, connectMaxRetries, err)
		logger.Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))

		if err := sleepCtx(ctx, connectRetryDelay); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectMaxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
