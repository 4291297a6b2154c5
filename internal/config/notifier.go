package config

import (
	"fmt"
	"log"

	"github.com/ilyakaznacheev/cleanenv"
)

// NotifierConfig - конфигурация воркера e-mail уведомлений.
type NotifierConfig struct {
	RabbitMQ          RabbitMQConfig `yaml:"rabbitmq"`
	SMTP              SMTPConfig     `yaml:"smtp"`
	Log               LogConfig      `yaml:"log"`
	QueueName         string         `yaml:"queue_name" env:"SOLVED_EVENTS_QUEUE" env-default:"sheet_solved_events"`
	WorkerConcurrency int            `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
	HealthCheckPort   string         `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8089"`
}

type RabbitMQConfig struct {
	URI string `yaml:"uri" env:"RABBITMQ_URI" env-required:"true"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-required:"true"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-required:"true"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// LoadNotifierConfig читает yaml файл по пути path, а если его нет, только переменные окружения.
func LoadNotifierConfig(path string) (*NotifierConfig, error) {
	var cfg NotifierConfig

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		log.Printf("Warning: failed to read config file '%s': %v. Falling back to environment.", path, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to load notifier config: %w", err)
		}
	}
	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}
	return &cfg, nil
}
