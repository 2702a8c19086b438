package grpcserver

import (
	"sync"

	"github.com/rs/zerolog"

	pb "bookfeed/api/pb"
	"bookfeed/domain/book"
	"bookfeed/infra/metrics"
	"bookfeed/service"
)

// Server adapts the summarizer pipelines to the OrderbookAggregator
// gRPC contract. Each BookSummary call gets its own subscription per
// exchange pipeline, all merged into one response stream.
type Server struct {
	pb.UnimplementedOrderbookAggregatorServer
	summarizers []*service.Summarizer
	log         zerolog.Logger
}

func NewServer(summarizers []*service.Summarizer, log zerolog.Logger) *Server {
	return &Server{summarizers: summarizers, log: log}
}

func (s *Server) BookSummary(_ *pb.Empty, stream pb.OrderbookAggregator_BookSummaryServer) error {
	ctx := stream.Context()
	s.log.Info().Int("pipelines", len(s.summarizers)).Msg("[gRPC] summary subscriber attached")

	merged := make(chan book.Summary, service.SubscriberBuffer)
	var wg sync.WaitGroup

	for _, sum := range s.summarizers {
		ch, cancel := sum.Subscribe()
		defer cancel()

		wg.Add(1)
		go func(ch <-chan book.Summary) {
			defer wg.Done()
			for sm := range ch {
				select {
				case merged <- sm:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	// When every pipeline shuts down, the subscriber's stream ends
	// cleanly rather than erroring.
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("[gRPC] summary subscriber detached")
			return ctx.Err()
		case sum, ok := <-merged:
			if !ok {
				return nil
			}
			if err := stream.Send(toSummary(sum)); err != nil {
				return err
			}
			metrics.SummariesSentTotal.WithLabelValues(sum.Exchange, "grpc").Inc()
		}
	}
}

// --- converters ---

func toSummary(sum book.Summary) *pb.Summary {
	out := &pb.Summary{
		Spread: sum.Spread,
		Bids:   make([]*pb.Level, 0, len(sum.Bids)),
		Asks:   make([]*pb.Level, 0, len(sum.Asks)),
	}
	for _, l := range sum.Bids {
		out.Bids = append(out.Bids, toLevel(sum.Exchange, l))
	}
	for _, l := range sum.Asks {
		out.Asks = append(out.Asks, toLevel(sum.Exchange, l))
	}
	return out
}

func toLevel(exchange string, l book.Level) *pb.Level {
	return &pb.Level{Exchange: exchange, Price: l.Price, Amount: l.Size}
}
