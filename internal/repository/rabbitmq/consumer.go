package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

// AlertHandler receives every alert event consumed from the bus, e.g. the
// websocket hub fanning alerts out to connected dashboards.
type AlertHandler interface {
	HandleAlert(alert entity.Alert)
}

// AlertConsumer subscribes to the alerts exchange and forwards decoded
// events to its handler.
type AlertConsumer struct {
	channel     *amqp.Channel
	exchange    string
	routingKey  string
	queue       string
	handler     AlertHandler
	prefetchCnt int
	log         *zap.SugaredLogger
}

func NewAlertConsumer(conn *amqp.Connection, exchange, routingKey, queue string, handler AlertHandler, log *zap.SugaredLogger) (*AlertConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &AlertConsumer{
		channel:     ch,
		exchange:    exchange,
		routingKey:  routingKey,
		queue:       queue,
		handler:     handler,
		prefetchCnt: 1,
		log:         log,
	}

	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, err
	}
	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return nil, err
	}
	if err := ch.Qos(consumer.prefetchCnt, 0, false); err != nil {
		return nil, err
	}

	return consumer, nil
}

func (c *AlertConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			c.log.Info("alert consumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn("rabbitmq channel closed")
				return nil
			}

			var alert entity.Alert
			if err := json.Unmarshal(msg.Body, &alert); err != nil {
				c.log.Errorw("failed to unmarshal alert event", "error", err)
				msg.Nack(false, false)
				continue
			}

			c.handler.HandleAlert(alert)
			msg.Ack(false)
		}
	}
}
