package feed

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookfeed/domain/book"
	"bookfeed/service"
)

func newBitstamp() *Bitstamp {
	return NewBitstamp("wss://ws.bitstamp.net", "btcusd", service.NewBookService("bitstamp"), zerolog.Nop())
}

func TestDecodeOrderCreated(t *testing.T) {
	f := newBitstamp()
	raw := []byte(`{
		"event": "order_created",
		"channel": "live_orders_btcusd",
		"data": {"id": 42, "order_type": 0, "price_str": "27123.50", "amount_str": "0.25", "price": 27123.5, "amount": 0.25}
	}`)

	ev, err := f.decode(raw)
	require.NoError(t, err)
	assert.Equal(t, book.Created, ev.Kind)
	assert.Equal(t, book.Buy, ev.Order.Side)
	assert.Equal(t, uint64(42), ev.Order.ID)
	assert.Equal(t, 27123.50, ev.Order.Price)
	assert.Equal(t, 0.25, ev.Order.Size)
	assert.Equal(t, uint64(1), ev.Order.Seq)
}

func TestDecodeOrderDeletedSell(t *testing.T) {
	f := newBitstamp()
	raw := []byte(`{
		"event": "order_deleted",
		"channel": "live_orders_btcusd",
		"data": {"id": 7, "order_type": 1, "price_str": "27000", "amount_str": "1"}
	}`)

	ev, err := f.decode(raw)
	require.NoError(t, err)
	assert.Equal(t, book.Deleted, ev.Kind)
	assert.Equal(t, book.Sell, ev.Order.Side)
}

func TestDecodeAssignsMonotonicSeq(t *testing.T) {
	f := newBitstamp()
	raw := []byte(`{"event": "order_created", "data": {"id": 1, "order_type": 0, "price_str": "1", "amount_str": "1"}}`)

	ev1, err := f.decode(raw)
	require.NoError(t, err)
	ev2, err := f.decode(raw)
	require.NoError(t, err)
	assert.Greater(t, ev2.Order.Seq, ev1.Order.Seq)
}

func TestDecodeTradeIsIgnored(t *testing.T) {
	f := newBitstamp()
	raw := []byte(`{
		"event": "trade",
		"channel": "live_trades_btcusd",
		"data": {"id": 9000, "amount": 0.1, "price": 27100.0, "type": 0}
	}`)

	ev, err := f.decode(raw)
	require.NoError(t, err)
	assert.Equal(t, book.Ignore, ev.Kind)
}

func TestDecodeSubscriptionAckIsIgnored(t *testing.T) {
	f := newBitstamp()
	raw := []byte(`{"event": "bts:subscription_succeeded", "channel": "live_orders_btcusd", "data": {}}`)

	ev, err := f.decode(raw)
	require.NoError(t, err)
	assert.Equal(t, book.Ignore, ev.Kind)
}

func TestDecodeMalformed(t *testing.T) {
	f := newBitstamp()
	cases := map[string]string{
		"invalid json":    `{"event": "order_created"`,
		"bad order_type":  `{"event": "order_created", "data": {"id": 1, "order_type": 9, "price_str": "1", "amount_str": "1"}}`,
		"negative price":  `{"event": "order_created", "data": {"id": 1, "order_type": 0, "price_str": "-1", "amount_str": "1"}}`,
		"unparsable size": `{"event": "order_created", "data": {"id": 1, "order_type": 0, "price_str": "1", "amount_str": "lots"}}`,
		"nan price":       `{"event": "order_created", "data": {"id": 1, "order_type": 0, "price_str": "NaN", "amount_str": "1"}}`,
	}
	for name, raw := range cases {
		_, err := f.decode([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedEvent, name)
	}
}

func TestKafkaSourceDecode(t *testing.T) {
	src := NewKafkaSource(nil, "events", "g", service.NewBookService("internal"), zerolog.Nop())

	ev, err := src.decode([]byte(`{"kind": "changed", "side": "sell", "order_id": 5, "price": 101.5, "size": 2}`))
	require.NoError(t, err)
	assert.Equal(t, book.Changed, ev.Kind)
	assert.Equal(t, book.Sell, ev.Order.Side)
	assert.Equal(t, 101.5, ev.Order.Price)

	ev, err = src.decode([]byte(`{"kind": "heartbeat"}`))
	require.NoError(t, err)
	assert.Equal(t, book.Ignore, ev.Kind)

	_, err = src.decode([]byte(`{"kind": "created", "side": "short", "order_id": 5, "price": 1, "size": 1}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = src.decode([]byte(`{"kind": "created", "side": "buy", "order_id": 5, "price": -1, "size": 1}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
