// Package publisher implements a background job that drains one
// summarizer subscription and republishes each sample to Kafka for
// consumers that are not attached over gRPC.
package publisher

import (
	"context"

	"github.com/rs/zerolog"

	"bookfeed/infra/kafka"
	"bookfeed/infra/metrics"
	"bookfeed/service"
)

type Publisher struct {
	sum  *service.Summarizer
	prod *kafka.Producer
	log  zerolog.Logger
}

func New(sum *service.Summarizer, prod *kafka.Producer, log zerolog.Logger) *Publisher {
	return &Publisher{
		sum:  sum,
		prod: prod,
		log:  log.With().Str("exchange", sum.Exchange()).Logger(),
	}
}

// Run forwards summaries until ctx is cancelled or the subscription
// ends. A failed publish is logged and skipped; the next sample
// supersedes it anyway.
func (p *Publisher) Run(ctx context.Context) error {
	ch, cancel := p.sum.Subscribe()
	defer cancel()

	p.log.Info().Msg("kafka publisher started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sum, ok := <-ch:
			if !ok {
				return nil
			}
			if err := p.prod.PublishSummary(ctx, sum); err != nil {
				p.log.Warn().Err(err).Msg("publish summary")
				continue
			}
			metrics.SummariesSentTotal.WithLabelValues(sum.Exchange, "kafka").Inc()
		}
	}
}
