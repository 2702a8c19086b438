package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"bookfeed/domain/book"
)

// Producer publishes book summaries to a Kafka topic, keyed by
// exchange so one partition preserves per-exchange ordering.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) PublishSummary(ctx context.Context, sum book.Summary) error {
	val, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(sum.Exchange),
		Value: val,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
