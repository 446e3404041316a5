package kafka

import (
	"context"

	"github.com/looncamp/booking/internal/outbox"
	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

// Publish keys messages by ticket id so one booking's notifications stay on
// one partition.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg outbox.Message) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(routingKey)},
			{Key: "message_id", Value: []byte(msg.ID)},
			{Key: "content_type", Value: []byte(msg.ContentType)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})}
}

func (c *Consumer) Consume(ctx context.Context, handle func(ctx context.Context, routingKey string, body []byte) error) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		_ = handle(ctx, header(m, "event_type"), m.Value)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
