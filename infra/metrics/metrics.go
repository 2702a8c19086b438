package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	EventsAppliedTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "book_events_applied_total", Help: "Book events applied by exchange and kind"}, []string{"exchange", "kind"})
	EventsMalformedTotal  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_events_malformed_total", Help: "Feed messages that failed to decode"}, []string{"exchange"})
	FeedReconnectsTotal   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Feed reconnects by exchange"}, []string{"exchange"})
	SummariesSampledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "summaries_sampled_total", Help: "Summaries sampled from the book"}, []string{"exchange"})
	SummariesSentTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "summaries_sent_total", Help: "Summaries delivered downstream by sink"}, []string{"exchange", "sink"})
	BookSpread            = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_spread", Help: "Best ask minus best bid at last sample"}, []string{"exchange"})
	SubscribersActive     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "summary_subscribers_active", Help: "Attached summary subscribers"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		EventsAppliedTotal, EventsMalformedTotal, FeedReconnectsTotal,
		SummariesSampledTotal, SummariesSentTotal, BookSpread, SubscribersActive,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
