package rabbit

import (
	"context"

	"github.com/looncamp/booking/internal/outbox"
	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "looncamp.events"

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, msg outbox.Message) error {
	return p.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
		MessageId:     msg.ID,
		CorrelationId: msg.Key,
		ContentType:   msg.ContentType,
		DeliveryMode:  amqp.Persistent,
		Body:          msg.Body,
	})
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
