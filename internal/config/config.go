package config

import (
	"fmt"
	"time"

	"story-server/internal/database"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// Config содержит конфигурацию сервера прохождения историй
type Config struct {
	// Настройки сервера
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	Env             string        `envconfig:"ENV" default:"production"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding     string        `envconfig:"LOG_ENCODING" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	SecretsDir      string        `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        int           `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"5m"`
	// Секрет: файл db_password или DB_PASSWORD
	DBPassword string `ignored:"true"`

	// Настройки Redis (ограничение частоты ответов)
	RedisAddr           string        `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword       string        `envconfig:"REDIS_PASSWORD"`
	RedisDB             int           `envconfig:"REDIS_DB" default:"0"`
	AnswerAttemptLimit  int           `envconfig:"ANSWER_ATTEMPT_LIMIT" default:"30"`
	AnswerAttemptWindow time.Duration `envconfig:"ANSWER_ATTEMPT_WINDOW" default:"1m"`

	// Настройки RabbitMQ. Пустой URL отключает уведомления.
	RabbitMQURL       string `envconfig:"RABBITMQ_URL"`
	SolvedEventsQueue string `envconfig:"SOLVED_EVENTS_QUEUE" default:"sheet_solved_events"`

	// Секрет: файл jwt_secret или JWT_SECRET
	JWTSecret string `ignored:"true"`
}

// Database возвращает параметры подключения к PostgreSQL
func (c *Config) Database() database.Config {
	return database.Config{
		Host:        c.DBHost,
		Port:        c.DBPort,
		User:        c.DBUser,
		Password:    c.DBPassword,
		Name:        c.DBName,
		SSLMode:     c.DBSSLMode,
		MaxConns:    c.DBMaxConns,
		IdleTimeout: c.DBIdleTimeout,
	}
}

// Redis возвращает опции клиента Redis
func (c *Config) Redis() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// LoadConfig загружает конфигурацию из .env (если есть), переменных окружения и секретов
func LoadConfig() (*Config, error) {
	// .env нужен только для локального запуска, его отсутствие не ошибка
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var err error
	cfg.DBPassword, err = readSecretOrEnv(cfg.SecretsDir, "db_password", "DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret, err = readSecretOrEnv(cfg.SecretsDir, "jwt_secret", "JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if cfg.AnswerAttemptLimit > 0 && cfg.AnswerAttemptWindow <= 0 {
		return nil, fmt.Errorf("ANSWER_ATTEMPT_WINDOW must be positive when ANSWER_ATTEMPT_LIMIT is set")
	}

	return &cfg, nil
}
