package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const maxReconnectDelay = 30 * time.Second

// SubmissionHandler processes one decoded broker message. It must absorb
// its own failures; the consumer acks every delivery regardless.
type SubmissionHandler interface {
	HandleSubmissionCreated(ctx context.Context, body []byte)
}

// Consumer owns the RabbitMQ connection: it declares the topic exchange,
// the durable queue and the binding, dispatches deliveries to the handler
// one at a time, and reconnects with capped exponential backoff whenever
// the connection drops. Connection errors are never fatal to the process.
type Consumer struct {
	cfg     config.RabbitMQConfig
	handler SubmissionHandler
	logger  zerolog.Logger
}

func NewConsumer(cfg config.RabbitMQConfig, handler SubmissionHandler, logger zerolog.Logger) *Consumer {
	return &Consumer{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	attempt := 0

	for {
		established, err := c.consume(ctx)
		if ctx.Err() != nil {
			c.logger.Info().Msg("Stopping RabbitMQ consumer")
			return
		}

		if established {
			attempt = 0
		}
		attempt++

		delay := reconnectDelay(attempt)
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("RabbitMQ connection failed, retrying")

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Stopping RabbitMQ consumer")
			return
		case <-time.After(delay):
		}
	}
}

// consume runs one connection session. The established return reports
// whether connect-and-bind succeeded, which resets the backoff counter.
func (c *Consumer) consume(ctx context.Context) (bool, error) {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return false, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return false, fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	// prefetch 1: the next message is not delivered until the current ack
	if err := channel.Qos(1, 0, false); err != nil {
		return false, fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := channel.ExchangeDeclare(
		c.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return false, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := channel.QueueDeclare(
		c.cfg.QueueName, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return false, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(
		q.Name,           // queue name
		c.cfg.RoutingKey, // routing key
		c.cfg.Exchange,   // exchange
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		return false, fmt.Errorf("failed to bind queue: %w", err)
	}

	consumerTag := fmt.Sprintf("%s-%s", c.cfg.ConsumerTag, uuid.NewString()[:8])

	deliveries, err := channel.ConsumeWithContext(
		ctx,
		q.Name,      // queue
		consumerTag, // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return false, fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().
		Str("queue", q.Name).
		Str("consumer_tag", consumerTag).
		Msg("Connected to RabbitMQ, waiting for submissions")

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case connErr := <-closed:
			if connErr == nil {
				return true, errors.New("connection closed")
			}
			return true, connErr
		case msg, ok := <-deliveries:
			if !ok {
				return true, errors.New("delivery channel closed")
			}
			c.dispatch(ctx, msg)
		}
	}
}

// dispatch hands the message to the handler and acks it exactly once,
// success and handled failure alike. Redelivering a message whose review
// already went out would double-score it for no gain.
func (c *Consumer) dispatch(ctx context.Context, msg amqp.Delivery) {
	c.handler.HandleSubmissionCreated(ctx, msg.Body)

	if err := msg.Ack(false); err != nil {
		c.logger.Error().Err(err).Msg("Failed to ack message")
	}
}

func reconnectDelay(attempt int) time.Duration {
	if attempt > 5 {
		return maxReconnectDelay
	}

	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > maxReconnectDelay {
		return maxReconnectDelay
	}
	return delay
}
