package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bookfeed/domain/book"
	"bookfeed/infra/metrics"
	"bookfeed/service"
)

// ErrMalformedEvent marks feed messages that could not be decoded into
// a book event. They are logged and skipped, never fatal.
var ErrMalformedEvent = errors.New("feed: malformed event")

const (
	handshakeTimeout = 10 * time.Second
	maxBackoff       = 30 * time.Second
)

// Bitstamp streams the public live-order feed for one pair over the
// exchange websocket and applies decoded events to the book service in
// arrival order. It reconnects with exponential backoff; the book is
// reset to empty before each connect because the exchange redelivers
// live state to a fresh subscription.
type Bitstamp struct {
	url  string
	pair string
	svc  *service.BookService
	log  zerolog.Logger

	seq uint64
}

func NewBitstamp(url, pair string, svc *service.BookService, log zerolog.Logger) *Bitstamp {
	return &Bitstamp{
		url:  url,
		pair: pair,
		svc:  svc,
		log:  log.With().Str("exchange", svc.Exchange()).Str("pair", pair).Logger(),
	}
}

// Run keeps a session alive until ctx is cancelled.
func (f *Bitstamp) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := f.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.FeedReconnectsTotal.WithLabelValues(f.svc.Exchange()).Inc()
		f.log.Warn().Err(err).Dur("backoff", backoff).Msg("feed disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (f *Bitstamp) stream(ctx context.Context) error {
	f.svc.Reset()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for _, ch := range []string{"live_orders_" + f.pair, "live_trades_" + f.pair} {
		sub := map[string]any{
			"event": "bts:subscribe",
			"data":  map[string]string{"channel": ch},
		}
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", ch, err)
		}
	}
	f.log.Info().Msg("subscribed")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := f.decode(raw)
		if err != nil {
			metrics.EventsMalformedTotal.WithLabelValues(f.svc.Exchange()).Inc()
			f.log.Debug().Err(err).Msg("skipping message")
			continue
		}
		f.svc.Apply(ev)
	}
}

type wireMsg struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// wireOrder is the Bitstamp live_orders payload. Price and amount
// arrive as numeric strings; order_type is 0 for buy, 1 for sell.
type wireOrder struct {
	ID        uint64 `json:"id"`
	OrderType int    `json:"order_type"`
	PriceStr  string `json:"price_str"`
	AmountStr string `json:"amount_str"`
}

func (f *Bitstamp) decode(raw []byte) (book.Event, error) {
	var msg wireMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return book.Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var kind book.Kind
	switch msg.Event {
	case "order_created":
		kind = book.Created
	case "order_changed":
		kind = book.Changed
	case "order_deleted":
		kind = book.Deleted
	default:
		// Trades, subscription acks, reconnect requests: not book
		// events, but not errors either.
		return book.Event{Kind: book.Ignore}, nil
	}

	var wo wireOrder
	if err := json.Unmarshal(msg.Data, &wo); err != nil {
		return book.Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	side, err := sideFromWire(wo.OrderType)
	if err != nil {
		return book.Event{}, err
	}
	price, err := parsePositive(wo.PriceStr)
	if err != nil {
		return book.Event{}, fmt.Errorf("%w: price %q", ErrMalformedEvent, wo.PriceStr)
	}
	size, err := parsePositive(wo.AmountStr)
	if err != nil {
		return book.Event{}, fmt.Errorf("%w: amount %q", ErrMalformedEvent, wo.AmountStr)
	}

	f.seq++
	return book.Event{
		Kind: kind,
		Order: book.Order{
			ID:    wo.ID,
			Side:  side,
			Price: price,
			Size:  size,
			Seq:   f.seq,
		},
	}, nil
}

func sideFromWire(t int) (book.Side, error) {
	switch t {
	case 0:
		return book.Buy, nil
	case 1:
		return book.Sell, nil
	default:
		return book.Buy, fmt.Errorf("%w: order_type %d", ErrMalformedEvent, t)
	}
}

func parsePositive(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrMalformedEvent
	}
	return v, nil
}
