package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange both services share; routing keys
// are event types ("recurring_task.due", "notification.sent", ...).
const ExchangeName = "events"

func NewConnection(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares a durable topic exchange. Declaration is
// idempotent, so every consumer and publisher declares on startup rather
// than assuming provisioning order.
func DeclareExchange(ch *amqp091.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	)
}
