package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"story-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const processTimeout = 30 * time.Second

// SolvedEventHandler доставляет уведомления о решенном листе.
type SolvedEventHandler interface {
	HandleSheetSolved(ctx context.Context, event models.SheetSolvedEvent) error
}

// Consumer читает события из очереди пулом воркеров.
type Consumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *Processor
	stopChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, logger *zap.Logger, queueName string, concurrency int, processor *Processor) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      logger.Named("consumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stopChannel: make(chan struct{}),
	}
}

// Start блокируется до вызова Stop или закрытия канала доставки.
func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := DeclareSolvedQueue(ch, c.queueName); err != nil {
		return err
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(c.queueName, "story-notifier", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.Info("Consumer started", zap.String("queue", c.queueName), zap.Int("concurrency", c.concurrency))

	done := make(chan struct{})
	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Info("Delivery channel closed, worker exiting")
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-c.stopChannel:
		c.logger.Info("Stop requested, cancelling workers")
		cancel()
	case <-done:
	}
	<-done
	c.logger.Info("All consumer workers stopped")
	return nil
}

func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChannel) })
}

// Processor разбирает одно сообщение и подтверждает его.
type Processor struct {
	logger  *zap.Logger
	handler SolvedEventHandler
}

func NewProcessor(logger *zap.Logger, handler SolvedEventHandler) *Processor {
	return &Processor{
		logger:  logger.Named("processor"),
		handler: handler,
	}
}

// ProcessMessage: битый JSON и ошибки доставки - Nack без requeue, успех - Ack.
func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	logFields := []zap.Field{zap.Uint64("delivery_tag", d.DeliveryTag)}

	var event models.SheetSolvedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		p.logger.Error("Failed to unmarshal sheet solved event",
			append(logFields, zap.Error(err), zap.ByteString("body", d.Body))...)
		if ackErr := d.Nack(false, false); ackErr != nil {
			p.logger.Error("Failed to nack message", append(logFields, zap.Error(ackErr))...)
		}
		return
	}
	logFields = append(logFields,
		zap.String("progressID", event.ProgressID.String()),
		zap.String("storyID", event.StoryID.String()),
	)

	processCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	if err := p.handler.HandleSheetSolved(processCtx, event); err != nil {
		p.logger.Error("Failed to deliver sheet solved notifications", append(logFields, zap.Error(err))...)
		if ackErr := d.Nack(false, false); ackErr != nil {
			p.logger.Error("Failed to nack message", append(logFields, zap.Error(ackErr))...)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		p.logger.Error("Failed to ack message", append(logFields, zap.Error(ackErr))...)
		return
	}
	p.logger.Info("Sheet solved event processed", logFields...)
}
