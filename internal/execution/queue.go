package execution

import (
	"fmt"
	"sync"

	"github.com/tidwall/btree"

	"market-sim-lab/internal/domain"
)

// OrderRequest is a client request to place a limit order.
type OrderRequest struct {
	Symbol     string
	Side       domain.Side
	Quantity   float64
	LimitPrice float64
}

// Validate checks the request fields.
func (r OrderRequest) Validate() error {
	switch {
	case r.Symbol == "":
		return ErrInvalidSymbol
	case !r.Side.Valid():
		return fmt.Errorf("%w: %q", ErrInvalidSide, r.Side)
	case !positiveFinite(r.Quantity):
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, r.Quantity)
	case !positiveFinite(r.LimitPrice):
		return fmt.Errorf("%w: %v", ErrInvalidLimitPrice, r.LimitPrice)
	}
	return nil
}

// Outcome is the result of offering one eligible order to a tick.
type Outcome struct {
	Order domain.Order  // snapshot after the transition
	Trade *domain.Trade // nil unless filled
	Err   error         // fill error, order cancelled with CancelReasonFillError
}

// Queue is the latency-gated FIFO of pending orders plus the order audit index.
// It is the single writer of order status; all transitions happen under mu.
type Queue struct {
	mu sync.Mutex

	latency    int64
	nextID     uint64
	lastSubmit int64
	submitted  bool

	pending []*domain.Order                   // submission order
	orders  *btree.Map[uint64, *domain.Order] // every order ever accepted, by id
}

// NewQueue creates a queue that delays eligibility by latency nanoseconds.
func NewQueue(latency int64) *Queue {
	return &Queue{
		latency: latency,
		orders:  btree.NewMap[uint64, *domain.Order](32),
	}
}

// Submit validates req and enqueues a pending order submitted at ts.
// Submission times must be non-decreasing.
func (q *Queue) Submit(req OrderRequest, ts int64) (domain.Order, error) {
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.submitted && ts < q.lastSubmit {
		return domain.Order{}, fmt.Errorf("%w: %d < %d", ErrOutOfOrderSubmission, ts, q.lastSubmit)
	}

	q.nextID++
	o := &domain.Order{
		ID:          q.nextID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		SubmittedAt: ts,
		Latency:     q.latency,
		Status:      domain.OrderPending,
	}
	q.pending = append(q.pending, o)
	q.orders.Set(o.ID, o)
	q.lastSubmit = ts
	q.submitted = true

	return *o, nil
}

// Cancel moves a pending order to cancelled. It returns false if the order
// is unknown or already terminal.
func (q *Queue) Cancel(id uint64, ts int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	o, ok := q.orders.Get(id)
	if !ok || !q.transition(o, domain.OrderCancelled, domain.CancelReasonUser, ts) {
		return false
	}
	q.removePending(id)
	return true
}

// Drain offers every eligible order for symbol to the fill engine at price.
// The scan walks the queue in submission order and stops at the first order
// whose latency has not elapsed. Eligible orders for other symbols stay queued.
// Every offered order leaves the queue: filled, or cancelled when it does not
// cross or the fill fails.
func (q *Queue) Drain(symbol string, price float64, ts int64, fe *FillEngine) []Outcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	var (
		outcomes []Outcome
		kept     []*domain.Order
		i        int
	)
	for ; i < len(q.pending); i++ {
		o := q.pending[i]
		if o.EligibleAt() > ts {
			break
		}
		if o.Symbol != symbol {
			kept = append(kept, o)
			continue
		}

		trade, err := fe.TryFill(o, price, ts)
		switch {
		case err != nil:
			q.transition(o, domain.OrderCancelled, domain.CancelReasonFillError, ts)
			outcomes = append(outcomes, Outcome{Order: *o, Err: err})
		case trade == nil:
			q.transition(o, domain.OrderCancelled, domain.CancelReasonNotCrossed, ts)
			outcomes = append(outcomes, Outcome{Order: *o})
		default:
			q.transition(o, domain.OrderFilled, domain.CancelReasonNone, ts)
			o.FilledQuantity = trade.Quantity
			outcomes = append(outcomes, Outcome{Order: *o, Trade: trade})
		}
	}

	if i > 0 {
		rest := q.pending[i:]
		remaining := make([]*domain.Order, 0, len(kept)+len(rest))
		remaining = append(remaining, kept...)
		remaining = append(remaining, rest...)
		q.pending = remaining
	}
	return outcomes
}

// transition moves o from pending to status. It reports false when o is
// already terminal, which makes cancel and fill mutually exclusive.
func (q *Queue) transition(o *domain.Order, status domain.OrderStatus, reason domain.CancelReason, ts int64) bool {
	if o.Status != domain.OrderPending {
		return false
	}
	o.Status = status
	o.CancelReason = reason
	o.ClosedAt = ts
	return true
}

func (q *Queue) removePending(id uint64) {
	for i, o := range q.pending {
		if o.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Get returns a snapshot of order id.
func (q *Queue) Get(id uint64) (domain.Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	o, ok := q.orders.Get(id)
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// Orders returns snapshots of all orders ordered by id.
func (q *Queue) Orders() []domain.Order {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]domain.Order, 0, q.orders.Len())
	q.orders.Scan(func(_ uint64, o *domain.Order) bool {
		result = append(result, *o)
		return true
	})
	return result
}

// Depth returns the number of pending orders.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
