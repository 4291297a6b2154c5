package notifier

import (
	"context"
	"fmt"

	"story-server/internal/config"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mail - одно текстовое письмо.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Sender отправляет письмо одному получателю.
type Sender interface {
	Send(ctx context.Context, mail Mail) error
}

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

// SMTPSender отправляет письма через SMTP relay.
type SMTPSender struct {
	addr   string
	from   string
	send   sendFunc
	logger *zap.Logger
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	// Проверяем опции сразу, чтобы ошибка конфигурации всплыла при старте.
	if _, err := gomail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("invalid smtp config: %w", err)
	}

	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		// Клиент держит одно соединение, поэтому воркеры получают свой на каждое письмо.
		send: func(ctx context.Context, msg *gomail.Msg) error {
			client, err := gomail.NewClient(cfg.Host, opts...)
			if err != nil {
				return err
			}
			return client.DialAndSendWithContext(ctx, msg)
		},
		logger: logger.Named("SMTPSender"),
	}, nil
}

// Send блокирует до ответа relay или отмены ctx.
func (s *SMTPSender) Send(ctx context.Context, mail Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.buildMessage(mail)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s via %s: %w", mail.To, s.addr, err)
	}
	s.logger.Debug("Mail sent", zap.String("to", mail.To))
	return nil
}

// buildMessage собирает текстовое письмо. Адреса разбираются по RFC 5322, заголовки кодируются RFC 2047.
func (s *SMTPSender) buildMessage(mail Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.from, err)
	}
	if err := msg.To(mail.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", mail.To, err)
	}
	msg.Subject(mail.Subject)
	msg.SetDate()
	msg.SetBodyString(gomail.TypeTextPlain, mail.Body)
	return msg, nil
}
