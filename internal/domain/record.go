package domain

// Level is one price level of an order book side.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Record is one market data sample replayed through the system.
// Timestamp is nanoseconds on the simulation clock.
type Record struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp_ns"`
	Price     float64 `json:"price,omitempty"` // last trade price
	Bid       float64 `json:"bid,omitempty"`
	Ask       float64 `json:"ask,omitempty"`
	BidSize   float64 `json:"bid_size,omitempty"`
	AskSize   float64 `json:"ask_size,omitempty"`
	Bids      []Level `json:"bids,omitempty"` // best first
	Asks      []Level `json:"asks,omitempty"` // best first
}

// Clone returns a deep copy so transforms never alias the caller's levels.
func (r Record) Clone() Record {
	out := r
	if r.Bids != nil {
		out.Bids = append([]Level(nil), r.Bids...)
	}
	if r.Asks != nil {
		out.Asks = append([]Level(nil), r.Asks...)
	}
	return out
}

// BestBid returns the top bid, falling back to the first bid level.
func (r Record) BestBid() float64 {
	if r.Bid > 0 {
		return r.Bid
	}
	if len(r.Bids) > 0 {
		return r.Bids[0].Price
	}
	return 0
}

// BestAsk returns the top ask, falling back to the first ask level.
func (r Record) BestAsk() float64 {
	if r.Ask > 0 {
		return r.Ask
	}
	if len(r.Asks) > 0 {
		return r.Asks[0].Price
	}
	return 0
}

// Mid returns the bid/ask midpoint, or 0 when either side is missing.
func (r Record) Mid() float64 {
	bid, ask := r.BestBid(), r.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (bid + ask) / 2
}

// SpreadBps returns the quoted spread relative to mid, in basis points.
func (r Record) SpreadBps() float64 {
	mid := r.Mid()
	if mid == 0 {
		return 0
	}
	return (r.BestAsk() - r.BestBid()) / mid * 10000
}

// TickPrice is the price fills are evaluated against: last trade, else mid.
func (r Record) TickPrice() float64 {
	if r.Price != 0 {
		return r.Price
	}
	return r.Mid()
}
