package queue

import (
	"context"
	"testing"
	"time"

	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/config"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/readiness"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/service"
	"github.com/RubachokBoss/tactical-quiz/ai-review-service/internal/service/integration"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingAcknowledger struct {
	acks    int
	nacks   int
	rejects int
}

func (a *countingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *countingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	return nil
}

func (a *countingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.rejects++
	return nil
}

type noopHandler struct {
	bodies [][]byte
}

func (h *noopHandler) HandleSubmissionCreated(ctx context.Context, body []byte) {
	h.bodies = append(h.bodies, body)
}

func TestDispatchAcksEveryMessageExactlyOnce(t *testing.T) {
	bodies := [][]byte{
		[]byte(`{"Id": "42", "AnswerText": "apply direct pressure"}`),
		[]byte(`not json at all`),
		[]byte(``),
	}

	for _, body := range bodies {
		handler := &noopHandler{}
		consumer := NewConsumer(config.RabbitMQConfig{}, handler, zerolog.Nop())

		ack := &countingAcknowledger{}
		consumer.dispatch(context.Background(), amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  1,
			Body:         body,
		})

		assert.Len(t, handler.bodies, 1)
		assert.Equal(t, 1, ack.acks, "body %q", body)
		assert.Zero(t, ack.nacks)
		assert.Zero(t, ack.rejects)
	}
}

// The full handler path: scoring backend unreachable and gateway delivery
// failing must still end in exactly one ack, never a redelivery.
func TestDispatchAcksWhenScoringAndDeliveryFail(t *testing.T) {
	state := readiness.NewState() // never confirmed: scoring fails fast
	scorer := integration.NewOllamaClient("http://127.0.0.1:1", "llama3", time.Second, state, zerolog.Nop())
	gateway := integration.NewGatewayClient("http://127.0.0.1:1", time.Second, zerolog.Nop())
	reviewService := service.NewReviewService(scorer, gateway, []string{"pressure"}, zerolog.Nop())

	consumer := NewConsumer(config.RabbitMQConfig{}, reviewService, zerolog.Nop())

	ack := &countingAcknowledger{}
	consumer.dispatch(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  7,
		Body:         []byte(`{"Id": "42", "AnswerText": "apply direct pressure"}`),
	})

	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
}

func TestReconnectDelaySchedule(t *testing.T) {
	assert.Equal(t, 2*time.Second, reconnectDelay(1))
	assert.Equal(t, 4*time.Second, reconnectDelay(2))
	assert.Equal(t, 8*time.Second, reconnectDelay(3))
	assert.Equal(t, 16*time.Second, reconnectDelay(4))
	assert.Equal(t, 30*time.Second, reconnectDelay(5))
	assert.Equal(t, 30*time.Second, reconnectDelay(6))
	assert.Equal(t, 30*time.Second, reconnectDelay(50))
}

func TestReconnectDelayMonotonicAndCapped(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 20; attempt++ {
		delay := reconnectDelay(attempt)
		assert.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, maxReconnectDelay, "attempt %d", attempt)
		prev = delay
	}
}
