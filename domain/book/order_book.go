package book

import "sort"

// OrderBook keeps one exchange's resting liquidity as two price-sorted
// level slices. Bids are strictly descending, asks strictly ascending,
// so index 0 is the best level on either side.
//
// The book is not a matching engine: crossed levels are swept away
// wholesale instead of being netted against the incoming order.
type OrderBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// Apply is the sole mutation entry point. It never fails: events the
// book cannot act on are absorbed.
func (b *OrderBook) Apply(ev Event) {
	switch ev.Kind {
	case Created:
		b.upsertOrder(ev.Order)
		b.sweepCrossed(ev.Order.Side, ev.Order.Price)
	case Changed:
		// A change only re-checks crossing when the order moved to a
		// price not previously present on its side.
		if b.replaceOrder(ev.Order) {
			b.sweepCrossed(ev.Order.Side, ev.Order.Price)
		}
	case Deleted:
		b.removeOrder(ev.Order)
	}
}

func (b *OrderBook) levels(s Side) *[]PriceLevel {
	if s == Buy {
		return &b.Bids
	}
	return &b.Asks
}

// findLevel binary-searches one side for price using that side's
// ordering. It returns the exact index when a level exists at price,
// otherwise the index at which a new level keeps the side sorted.
func findLevel(levels []PriceLevel, s Side, price float64) (int, bool) {
	i := sort.Search(len(levels), func(i int) bool {
		if s == Buy {
			return levels[i].Price <= price
		}
		return levels[i].Price >= price
	})
	if i < len(levels) && levels[i].Price == price {
		return i, true
	}
	return i, false
}

// upsertOrder merges the order into the level at its price, inserting
// a new level when none exists. Reports whether a level was inserted.
func (b *OrderBook) upsertOrder(o Order) bool {
	side := b.levels(o.Side)
	i, ok := findLevel(*side, o.Side, o.Price)
	if ok {
		(*side)[i].add(o)
		return false
	}
	lvl := PriceLevel{Price: o.Price}
	lvl.add(o)
	*side = append(*side, PriceLevel{})
	copy((*side)[i+1:], (*side)[i:])
	(*side)[i] = lvl
	return true
}

// removeOrder drops the order from the level at its price, and the
// level itself once it holds no orders. Unknown level or unknown order
// is a no-op: the feed may legitimately reference orders placed before
// this subscription existed.
func (b *OrderBook) removeOrder(o Order) {
	side := b.levels(o.Side)
	i, ok := findLevel(*side, o.Side, o.Price)
	if !ok {
		return
	}
	if !(*side)[i].removeByID(o.ID) {
		return
	}
	if (*side)[i].empty() {
		*side = append((*side)[:i], (*side)[i+1:]...)
	}
}

// replaceOrder applies a change event. The feed sends the order's new
// size as an absolute value, not a delta, so the old entry is removed
// and the new snapshot reinserted whole. Reports whether the reinsert
// created a level that was not previously on the side.
func (b *OrderBook) replaceOrder(o Order) bool {
	b.removeOrder(o)
	return b.upsertOrder(o)
}

// sweepCrossed emulates an aggressive order at price consuming resting
// opposite-side liquidity: every crossed level is dropped outright,
// never partially reduced.
func (b *OrderBook) sweepCrossed(s Side, price float64) {
	if s == Buy {
		n := 0
		for n < len(b.Asks) && b.Asks[n].Price <= price {
			n++
		}
		if n > 0 {
			b.Asks = append(b.Asks[:0], b.Asks[n:]...)
		}
		return
	}
	n := 0
	for n < len(b.Bids) && b.Bids[n].Price >= price {
		n++
	}
	if n > 0 {
		b.Bids = append(b.Bids[:0], b.Bids[n:]...)
	}
}

// BestBid returns the highest resting bid level, if any.
func (b *OrderBook) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest resting ask level, if any.
func (b *OrderBook) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}
