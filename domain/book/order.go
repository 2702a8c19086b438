package book

// Side identifies the bid or ask half of a market.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Opposite returns the other half of the market.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind tags a feed event. Anything the book has no use for (trades,
// subscription acks, unknown message types) maps to Ignore.
type Kind int

const (
	Created Kind = iota
	Changed
	Deleted
	Ignore
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	default:
		return "ignore"
	}
}

// Order is one resting order as reported by the exchange. It is never
// mutated in place: a change event carries a full new snapshot of the
// order and replaces the old one wholesale.
type Order struct {
	ID    uint64
	Side  Side
	Price float64
	Size  float64
	Seq   uint64 // per-pipeline arrival counter, assigned by the decoder
}

// Event is one decoded feed message. Deleted events carry the side and
// price needed to locate the order; their size is informational only.
type Event struct {
	Kind  Kind
	Order Order
}
