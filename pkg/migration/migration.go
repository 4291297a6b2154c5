// Package migration применяет SQL миграции golang-migrate поверх pgxpool.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const (
	defaultMigrationsTable = "schema_migrations"
	defaultLockTimeout     = 30 * time.Second
)

// Config содержит настройки для миграций
type Config struct {
	MigrationsFS    fs.FS
	MigrationsPath  string
	MigrationsTable string
	LockTimeout     time.Duration
}

// Migrator выполняет миграции базы данных
type Migrator struct {
	config Config
	pool   *pgxpool.Pool
	log    zerolog.Logger
}

// NewMigrator создает новый экземпляр Migrator
func NewMigrator(config Config, pool *pgxpool.Pool, log zerolog.Logger) *Migrator {
	if config.MigrationsTable == "" {
		config.MigrationsTable = defaultMigrationsTable
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = defaultLockTimeout
	}
	return &Migrator{
		config: config,
		pool:   pool,
		log:    log.With().Str("component", "migrator").Logger(),
	}
}

// Up применяет все доступные миграции. Отсутствие новых миграций не ошибка.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down откатывает все миграции
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func(mg *migrate.Migrate) error { return mg.Down() })
}

// Steps применяет (n > 0) или откатывает (n < 0) ровно |n| миграций.
func (m *Migrator) Steps(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	return m.run(ctx, fmt.Sprintf("steps %d", n), func(mg *migrate.Migrate) error { return mg.Steps(n) })
}

// ForceVersion устанавливает версию миграции принудительно (снимает флаг dirty)
func (m *Migrator) ForceVersion(ctx context.Context, version uint) error {
	return m.run(ctx, fmt.Sprintf("force %d", version), func(mg *migrate.Migrate) error { return mg.Force(int(version)) })
}

// Version возвращает текущую версию миграции и флаг dirty
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	mg, err := m.newMigrate(ctx)
	if err != nil {
		return 0, false, err
	}
	defer m.closeMigrate(mg)

	version, dirty, err := mg.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) run(ctx context.Context, op string, fn func(mg *migrate.Migrate) error) error {
	mg, err := m.newMigrate(ctx)
	if err != nil {
		return err
	}
	defer m.closeMigrate(mg)

	started := time.Now()
	if err := fn(mg); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info().Str("op", op).Msg("database schema is up to date")
			return nil
		}
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, _ := mg.Version()
	m.log.Info().
		Str("op", op).
		Uint("version", version).
		Bool("dirty", dirty).
		Dur("took", time.Since(started)).
		Msg("database migrations applied")
	return nil
}

func (m *Migrator) newMigrate(ctx context.Context) (*migrate.Migrate, error) {
	if err := m.pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}

	// sql.DB поверх пула; закрытие sql.DB пул не закрывает.
	db := stdlib.OpenDBFromPool(m.pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: m.config.MigrationsTable,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	mg.LockTimeout = m.config.LockTimeout
	return mg, nil
}

func (m *Migrator) closeMigrate(mg *migrate.Migrate) {
	srcErr, dbErr := mg.Close()
	if srcErr != nil || dbErr != nil {
		m.log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrator")
	}
}
