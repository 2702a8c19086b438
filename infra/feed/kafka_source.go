package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"bookfeed/domain/book"
	"bookfeed/infra/metrics"
	"bookfeed/service"
)

// KafkaSource consumes already-normalized book events from a Kafka
// topic. It serves exchanges that are fronted by an internal
// normalizer instead of a direct websocket session; the normalizer
// owns the exchange-specific wire format.
type KafkaSource struct {
	brokers []string
	topic   string
	group   string
	svc     *service.BookService
	log     zerolog.Logger

	seq uint64
}

// kafkaEvent is the normalized envelope. Unknown kinds map to Ignore,
// mirroring the websocket path.
type kafkaEvent struct {
	Kind    string  `json:"kind"`
	Side    string  `json:"side"`
	OrderID uint64  `json:"order_id"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
}

func NewKafkaSource(brokers []string, topic, group string, svc *service.BookService, log zerolog.Logger) *KafkaSource {
	return &KafkaSource{
		brokers: brokers,
		topic:   topic,
		group:   group,
		svc:     svc,
		log:     log.With().Str("exchange", svc.Exchange()).Str("topic", topic).Logger(),
	}
}

// Run consumes until ctx is cancelled. A single group member per book
// keeps event application in partition order.
func (f *KafkaSource) Run(ctx context.Context) error {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = false

	group, err := sarama.NewConsumerGroup(f.brokers, f.group, cfg)
	if err != nil {
		return fmt.Errorf("consumer group %s: %w", f.group, err)
	}
	defer group.Close()

	f.svc.Reset()
	f.log.Info().Msg("kafka source started")

	h := &sourceHandler{src: f}
	for {
		if err := group.Consume(ctx, []string{f.topic}, h); err != nil {
			return fmt.Errorf("consume %s: %w", f.topic, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Rebalance: loop and rejoin.
	}
}

func (f *KafkaSource) decode(raw []byte) (book.Event, error) {
	var ke kafkaEvent
	if err := json.Unmarshal(raw, &ke); err != nil {
		return book.Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var kind book.Kind
	switch ke.Kind {
	case "created":
		kind = book.Created
	case "changed":
		kind = book.Changed
	case "deleted":
		kind = book.Deleted
	default:
		return book.Event{Kind: book.Ignore}, nil
	}

	var side book.Side
	switch ke.Side {
	case "buy":
		side = book.Buy
	case "sell":
		side = book.Sell
	default:
		return book.Event{}, fmt.Errorf("%w: side %q", ErrMalformedEvent, ke.Side)
	}

	if ke.Price < 0 || ke.Size < 0 || math.IsNaN(ke.Price) || math.IsNaN(ke.Size) {
		return book.Event{}, fmt.Errorf("%w: price=%v size=%v", ErrMalformedEvent, ke.Price, ke.Size)
	}

	f.seq++
	return book.Event{
		Kind: kind,
		Order: book.Order{
			ID:    ke.OrderID,
			Side:  side,
			Price: ke.Price,
			Size:  ke.Size,
			Seq:   f.seq,
		},
	}, nil
}

type sourceHandler struct {
	src *KafkaSource
}

func (h *sourceHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *sourceHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *sourceHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ev, err := h.src.decode(msg.Value)
		if err != nil {
			metrics.EventsMalformedTotal.WithLabelValues(h.src.svc.Exchange()).Inc()
			h.src.log.Debug().Err(err).Msg("skipping record")
		} else {
			h.src.svc.Apply(ev)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
