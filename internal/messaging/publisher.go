package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"story-server/internal/interfaces"
	"story-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishAttempts = 3
	publishTimeout  = 10 * time.Second
	appID           = "story-server"
)

// channelPublisher - часть *amqp.Channel, нужная паблишеру.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// SheetSolvedPublisher публикует события решения листов в очередь RabbitMQ.
type SheetSolvedPublisher struct {
	channel   channelPublisher
	queueName string
	backoff   time.Duration
	logger    *zap.Logger
}

var _ interfaces.SolvedNotifier = (*SheetSolvedPublisher)(nil)

// DeclareSolvedQueue объявляет durable очередь событий. Параметры должны совпадать у паблишера и консьюмера.
func DeclareSolvedQueue(ch *amqp.Channel, queueName string) error {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}
	return nil
}

// NewSheetSolvedPublisher открывает канал на соединении и объявляет очередь.
func NewSheetSolvedPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*SheetSolvedPublisher, *amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("sheet solved publisher: failed to open channel: %w", err)
	}
	if err := DeclareSolvedQueue(ch, queueName); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("sheet solved publisher: %w", err)
	}
	logger.Info("Sheet solved queue declared", zap.String("queue", queueName))
	return newSheetSolvedPublisher(ch, queueName, logger), ch, nil
}

func newSheetSolvedPublisher(ch channelPublisher, queueName string, logger *zap.Logger) *SheetSolvedPublisher {
	return &SheetSolvedPublisher{
		channel:   ch,
		queueName: queueName,
		backoff:   100 * time.Millisecond,
		logger:    logger.Named("SheetSolvedPublisher"),
	}
}

// PublishSheetSolved сериализует событие в JSON и публикует его persistent сообщением.
func (p *SheetSolvedPublisher) PublishSheetSolved(ctx context.Context, event models.SheetSolvedEvent) error {
	logFields := []zap.Field{
		zap.String("progressID", event.ProgressID.String()),
		zap.String("sheetID", event.SheetID.String()),
		zap.Int("recipients", len(event.Recipients)),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal sheet solved event", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to marshal sheet solved event %s: %w", event.ProgressID, err)
	}

	if err := p.publishMessage(ctx, body, event.ProgressID.String()); err != nil {
		p.logger.Error("Failed to publish sheet solved event", append(logFields, zap.Error(err))...)
		return err
	}
	p.logger.Debug("Sheet solved event published", logFields...)
	return nil
}

func (p *SheetSolvedPublisher) publishMessage(ctx context.Context, body []byte, messageID string) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange по умолчанию
			p.queueName, // routing key = имя очереди
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    messageID,
				Body:         body,
				Timestamp:    time.Now().UTC(),
				AppId:        appID,
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt),
			zap.String("queue", p.queueName),
			zap.Error(err),
		)
		if attempt == publishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("publish to queue %s interrupted: %w", p.queueName, ctx.Err())
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	return fmt.Errorf("failed to publish to queue %s after %d attempts: %w", p.queueName, publishAttempts, err)
}
