package domain

// Quote is a top-of-book snapshot for one symbol.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp_ns"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidSize   float64 `json:"bid_size"`
	AskSize   float64 `json:"ask_size"`
	Last      float64 `json:"last"`
}

// Mid returns the bid/ask midpoint, or 0 when either side is missing.
func (q Quote) Mid() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}

// Spread returns ask minus bid, or 0 when either side is missing.
func (q Quote) Spread() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return 0
	}
	return q.Ask - q.Bid
}
