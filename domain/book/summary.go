package book

// Level is one row of a depth-limited summary.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Summary is a point-in-time, depth-limited view of the book, best
// levels first. Spread is 0 when either side is empty, meaning "no
// two-sided market".
type Summary struct {
	Exchange string  `json:"exchange"`
	Spread   float64 `json:"spread"`
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
}

// Snapshot projects the top depth levels per side. The caller must
// hold the book's exclusion domain for the duration of the call.
func (b *OrderBook) Snapshot(depth int) Summary {
	var s Summary
	if len(b.Bids) > 0 && len(b.Asks) > 0 {
		s.Spread = b.Asks[0].Price - b.Bids[0].Price
	}
	s.Bids = project(b.Bids, depth)
	s.Asks = project(b.Asks, depth)
	return s
}

func project(levels []PriceLevel, depth int) []Level {
	if depth > len(levels) {
		depth = len(levels)
	}
	out := make([]Level, 0, depth)
	for _, lvl := range levels[:depth] {
		out = append(out, Level{Price: lvl.Price, Size: lvl.TotalSize})
	}
	return out
}
