package notifications

import (
	"context"

	"bakehub/pkg/logger"
	"bakehub/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
)

type amqpBroker interface {
	Publish(body []byte) error
	Consume(ctx context.Context, consumerTag string, handler func(msg amqp.Delivery) error) error
}

// AMQPQueue publishes events to a durable RabbitMQ queue and consumes them
// back into a Handler.
type AMQPQueue struct {
	broker amqpBroker
	log    *logger.Logger
}

func NewAMQPQueue(client *rabbitmq.Client, log *logger.Logger) *AMQPQueue {
	return newAMQPQueue(client, log)
}

func newAMQPQueue(broker amqpBroker, log *logger.Logger) *AMQPQueue {
	if log == nil {
		log = logger.Nop()
	}
	return &AMQPQueue{broker: broker, log: log}
}

// Publish sends event as a persistent JSON message.
func (q *AMQPQueue) Publish(_ context.Context, event Event) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}
	return q.broker.Publish(body)
}

// Consume feeds queued events to handler until ctx is done. Undecodable
// messages and handler failures are dropped after logging.
func (q *AMQPQueue) Consume(ctx context.Context, handler Handler) error {
	return q.broker.Consume(ctx, "bakehub-notifications", func(msg amqp.Delivery) error {
		return q.deliver(ctx, handler, msg.Body)
	})
}

func (q *AMQPQueue) deliver(ctx context.Context, handler Handler, body []byte) error {
	event, err := decodeEvent(body)
	if err != nil {
		q.log.Error(ctx, "dropping malformed notification message", err)
		return err
	}
	evCtx := q.log.WithOrderID(ctx, event.OrderID)
	if err := handler.Handle(evCtx, event); err != nil {
		q.log.Error(evCtx, "notification handler failed for "+string(event.Type), err)
		return err
	}
	return nil
}
