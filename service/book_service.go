package service

import (
	"sync"

	"bookfeed/domain/book"
	"bookfeed/infra/metrics"
)

/*
BookService is the ONLY write entry point for one exchange's book.

The ingestion pipeline mutates through Apply and the summarizer reads
through Snapshot; both run inside the same mutex, so a reader never
observes a book mid-mutation (a level removed but not yet reinserted
during a crossing sweep). The critical section does no I/O.
*/
type BookService struct {
	exchange string

	mu   sync.Mutex
	book *book.OrderBook
}

// NewBookService wires an empty book for one exchange.
// Books for different exchanges are never shared.
func NewBookService(exchange string) *BookService {
	return &BookService{
		exchange: exchange,
		book:     book.NewOrderBook(),
	}
}

func (s *BookService) Exchange() string { return s.exchange }

// Apply feeds one decoded event into the book. Events from one feed
// must arrive here in the order they were received.
func (s *BookService) Apply(ev book.Event) {
	s.mu.Lock()
	s.book.Apply(ev)
	s.mu.Unlock()

	metrics.EventsAppliedTotal.WithLabelValues(s.exchange, ev.Kind.String()).Inc()
}

// Snapshot returns a consistent depth-limited summary of the book.
func (s *BookService) Snapshot(depth int) book.Summary {
	s.mu.Lock()
	sum := s.book.Snapshot(depth)
	s.mu.Unlock()

	sum.Exchange = s.exchange
	metrics.BookSpread.WithLabelValues(s.exchange).Set(sum.Spread)
	return sum
}

// Reset discards all resting state. The feed calls this before every
// (re)connect, since the exchange redelivers live state and stale
// orders must not survive.
func (s *BookService) Reset() {
	s.mu.Lock()
	s.book = book.NewOrderBook()
	s.mu.Unlock()
}
