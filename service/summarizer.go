package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bookfeed/domain/book"
	"bookfeed/infra/metrics"
)

// SubscriberBuffer is the capacity of each subscriber channel. Sends
// block once it fills: with one sample per interval the sampling loop
// is already throttled, so a slow consumer stalls only its own stream.
const SubscriberBuffer = 4

type subscriber struct {
	ch   chan book.Summary
	done chan struct{}
}

// Summarizer samples one exchange's book on a fixed interval and fans
// the summaries out to subscribers. Sampling is independent of the
// event arrival rate: bursts of updates between ticks collapse into
// one summary and are invisible to consumers individually.
type Summarizer struct {
	svc      *BookService
	depth    int
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	subs   []*subscriber
	closed bool
}

func NewSummarizer(svc *BookService, depth int, interval time.Duration, log zerolog.Logger) *Summarizer {
	return &Summarizer{
		svc:      svc,
		depth:    depth,
		interval: interval,
		log:      log.With().Str("exchange", svc.Exchange()).Logger(),
	}
}

func (s *Summarizer) Exchange() string { return s.svc.Exchange() }

// Subscribe attaches a consumer and returns its stream plus a detach
// function. The stream is lazy, potentially infinite and not
// restartable; it closes after detach or summarizer shutdown. Every
// subscriber gets an independent stream fed by the same sampling loop.
func (s *Summarizer) Subscribe() (<-chan book.Summary, func()) {
	sub := &subscriber{
		ch:   make(chan book.Summary, SubscriberBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	s.subs = append(s.subs, sub)
	metrics.SubscribersActive.Inc()
	s.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { close(sub.done) })
	}
}

// Run samples until ctx is cancelled, then closes every subscriber
// channel so in-flight consumers see end-of-stream, not torn state.
func (s *Summarizer) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Int("depth", s.depth).Msg("summarizer started")

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-t.C:
			s.publish(ctx, s.svc.Snapshot(s.depth))
		}
	}
}

// publish first reaps detached subscribers (only this goroutine closes
// their channels, so a close can never race a send), then delivers the
// sample to the rest.
func (s *Summarizer) publish(ctx context.Context, sum book.Summary) {
	s.mu.Lock()
	live := s.subs[:0]
	for _, sub := range s.subs {
		select {
		case <-sub.done:
			close(sub.ch)
			metrics.SubscribersActive.Dec()
		default:
			live = append(live, sub)
		}
	}
	s.subs = live
	targets := make([]*subscriber, len(live))
	copy(targets, live)
	s.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- sum:
		case <-sub.done:
		case <-ctx.Done():
			return
		}
	}
	metrics.SummariesSampledTotal.WithLabelValues(s.svc.Exchange()).Inc()
}

func (s *Summarizer) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, sub := range s.subs {
		close(sub.ch)
		metrics.SubscribersActive.Dec()
	}
	s.subs = nil
	s.log.Info().Msg("summarizer stopped")
}
