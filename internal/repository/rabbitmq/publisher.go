package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher emits alert events onto a durable topic exchange. It owns
// one channel on the shared connection; the exchange is declared idempotently
// on construction so publisher and consumer can start in any order.
type RabbitPublisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

func NewRabbitPublisher(conn *amqp.Connection, exchange, routingKey string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}

	return &RabbitPublisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// Publish sends one pre-encoded event. Delivery confirmation is left to the
// broker; callers retry on error.
func (p *RabbitPublisher) Publish(ctx context.Context, body json.RawMessage) error {
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *RabbitPublisher) Close() error {
	return p.channel.Close()
}
