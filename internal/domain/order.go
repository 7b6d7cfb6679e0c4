package domain

// Side is the direction of an order or fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Sign returns +1 for buy and -1 for sell.
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// OrderStatus is the lifecycle state of an order.
// Transitions: pending -> filled, pending -> cancelled. Terminal states never change.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
)

// CancelReason records why an order left the pending state without a fill.
type CancelReason string

const (
	CancelReasonNone       CancelReason = ""
	CancelReasonUser       CancelReason = "user"
	CancelReasonNotCrossed CancelReason = "not_crossed"
	CancelReasonFillError  CancelReason = "fill_error"
)

// Order represents a limit order held by the execution engine.
// All timestamps are nanoseconds on the simulation clock.
type Order struct {
	ID             uint64
	Symbol         string
	Side           Side
	Quantity       float64
	LimitPrice     float64
	SubmittedAt    int64
	Latency        int64
	FilledQuantity float64
	Status         OrderStatus
	CancelReason   CancelReason
	ClosedAt       int64 // 0 while pending
}

// EligibleAt returns the earliest simulation time at which the order may fill.
func (o *Order) EligibleAt() int64 {
	return o.SubmittedAt + o.Latency
}

// IsTerminal reports whether the order reached filled or cancelled.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderFilled || o.Status == OrderCancelled
}
