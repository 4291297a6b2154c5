package database

import (
	"fmt"
	"net/url"
	"time"
)

// Config - параметры подключения к PostgreSQL.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	IdleTimeout time.Duration
}

// DSN возвращает строку подключения в формате URL (пароль экранируется).
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
