package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/config"
	"github.com/GoArmGo/BibFinder/internal/messaging/payloads"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client представляет собой клиент RabbitMQ для задач распознавания номеров
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewClient подключается к RabbitMQ и объявляет очередь задач
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := &Client{logger: logger.With("component", "rabbitmq")}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
	}
	client.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	client.channel = ch

	// durable: задачи переживают перезапуск брокера
	q, err := ch.QueueDeclare(cfg.RabbitMQ.RabbitMQQueueName, true, false, false, false, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось объявить очередь: %w", err)
	}
	client.queue = q

	client.logger.Info("RabbitMQ connected",
		"queue", q.Name,
		"messages", q.Messages,
	)
	return client, nil
}

// Close закрывает канал и соединение RabbitMQ
func (c *Client) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing RabbitMQ channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing RabbitMQ connection", "error", err)
			return
		}
	}
	c.logger.Info("RabbitMQ connection closed")
}

// PublishBibDetection публикует задачу отложенного распознавания номера
func (c *Client) PublishBibDetection(ctx context.Context, payload payloads.BibDetectionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка кодирования задачи: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(publishCtx, "", c.queue.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("ошибка публикации задачи: %w", err)
	}

	c.logger.Debug("bib detection job published", "photo_id", payload.PhotoID, "event_id", payload.EventID)
	return nil
}

// StartConsumingBibDetections начинает потребление задач из очереди.
// Обработка идёт в отдельной горутине до отмены ctx или закрытия канала.
func (c *Client) StartConsumingBibDetections(ctx context.Context, handler func(context.Context, payloads.BibDetectionPayload) error) error {
	// по одной неподтверждённой задаче на воркер
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("не удалось установить prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать потребителя: %w", err)
	}

	c.logger.Info("consumer registered", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("RabbitMQ delivery channel closed, stopping consumer")
					return
				}
				handleDelivery(ctx, msg, handler, c.logger)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping RabbitMQ consumer")
				return
			}
		}
	}()

	return nil
}

// handleDelivery подтверждает успешно обработанную задачу.
// Неразборчивое сообщение отбрасывается, ошибка обработки возвращает задачу в очередь.
func handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.BibDetectionPayload) error, logger *slog.Logger) {
	var payload payloads.BibDetectionPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.Error("malformed bib detection job", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			logger.Error("failed to nack malformed message", "error", err)
		}
		return
	}

	start := time.Now()
	if err := handler(ctx, payload); err != nil {
		logger.Warn("bib detection job failed, requeueing",
			"photo_id", payload.PhotoID,
			"error", err,
		)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("failed to ack message", "error", err)
		return
	}
	logger.Info("bib detection job processed",
		"photo_id", payload.PhotoID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
