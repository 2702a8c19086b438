package book

// PriceLevel aggregates every resting order at one exact price on one
// side. Orders keep arrival order; TotalSize always equals the sum of
// the constituent sizes. A level with no orders is removed from the
// book immediately, so an empty level is never observable.
type PriceLevel struct {
	Price     float64
	TotalSize float64
	Orders    []Order
}

func (l *PriceLevel) add(o Order) {
	l.Orders = append(l.Orders, o)
	l.TotalSize += o.Size
}

// removeByID unlinks the order with the given id and subtracts its
// size. Returns false when no such order rests at this level.
func (l *PriceLevel) removeByID(id uint64) bool {
	for i, o := range l.Orders {
		if o.ID == id {
			l.TotalSize -= o.Size
			if l.TotalSize < 0 {
				l.TotalSize = 0
			}
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return true
		}
	}
	return false
}

func (l *PriceLevel) empty() bool { return len(l.Orders) == 0 }
