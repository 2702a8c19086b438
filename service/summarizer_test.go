package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bookfeed/domain/book"
)

func newTestSummarizer(t *testing.T) (*Summarizer, *BookService, context.CancelFunc) {
	t.Helper()
	svc := NewBookService("bitstamp")
	sum := NewSummarizer(svc, 5, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sum.Run(ctx) }()
	return sum, svc, cancel
}

func recvSummary(t *testing.T, ch <-chan book.Summary) book.Summary {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("stream closed before a summary arrived")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a summary")
	}
	return book.Summary{}
}

func TestSubscriberReceivesSamples(t *testing.T) {
	sum, svc, cancel := newTestSummarizer(t)
	defer cancel()

	svc.Apply(orderEvent(book.Created, book.Buy, 100, 2, 1))
	svc.Apply(orderEvent(book.Created, book.Sell, 101, 1, 2))

	ch, detach := sum.Subscribe()
	defer detach()

	s := recvSummary(t, ch)
	if s.Exchange != "bitstamp" {
		t.Errorf("summary not tagged: %+v", s)
	}
	if s.Spread != 1 {
		t.Errorf("want spread 1, got %v", s.Spread)
	}
}

func TestEachSubscriberGetsIndependentStream(t *testing.T) {
	sum, svc, cancel := newTestSummarizer(t)
	defer cancel()

	svc.Apply(orderEvent(book.Created, book.Buy, 100, 1, 1))

	ch1, d1 := sum.Subscribe()
	defer d1()
	ch2, d2 := sum.Subscribe()
	defer d2()

	s1 := recvSummary(t, ch1)
	s2 := recvSummary(t, ch2)
	if len(s1.Bids) != 1 || len(s2.Bids) != 1 {
		t.Errorf("both subscribers should see the book: %+v / %+v", s1, s2)
	}
}

func TestDetachedSubscriberChannelCloses(t *testing.T) {
	sum, _, cancel := newTestSummarizer(t)
	defer cancel()

	ch, detach := sum.Subscribe()
	recvSummary(t, ch)
	detach()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // reaped and closed by the sampling loop
			}
		case <-deadline:
			t.Fatal("channel not closed after detach")
		}
	}
}

func TestShutdownClosesSubscribers(t *testing.T) {
	sum, _, cancel := newTestSummarizer(t)

	ch, detach := sum.Subscribe()
	defer detach()

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after shutdown")
		}
	}
}

func TestSubscribeAfterShutdownIsClosed(t *testing.T) {
	sum, _, cancel := newTestSummarizer(t)
	ch, detach := sum.Subscribe()
	cancel()
	for range ch {
	}
	detach()

	late, lateDetach := sum.Subscribe()
	defer lateDetach()
	select {
	case _, ok := <-late:
		if ok {
			t.Error("late subscription should be closed, got a summary")
		}
	case <-time.After(time.Second):
		t.Error("late subscription should be closed immediately")
	}
}

// A subscriber that never reads must not stall the others: its buffer
// fills, but each delivery attempt also honors detach and shutdown.
func TestSlowSubscriberDoesNotStarveOthers(t *testing.T) {
	sum, svc, cancel := newTestSummarizer(t)
	defer cancel()

	svc.Apply(orderEvent(book.Created, book.Buy, 100, 1, 1))

	slow, slowDetach := sum.Subscribe()
	_ = slow // never read until detach

	fast, fastDetach := sum.Subscribe()
	defer fastDetach()

	// The slow buffer (cap 4) fills after a few ticks; from then on
	// the sampler blocks on it and fast sees nothing new. Detach must
	// unblock delivery.
	for i := 0; i < SubscriberBuffer; i++ {
		recvSummary(t, fast)
	}
	slowDetach()
	recvSummary(t, fast)
	recvSummary(t, fast)
}
