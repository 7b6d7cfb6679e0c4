package execution

import (
	"time"

	"market-sim-lab/internal/domain"
)

// Recorder receives execution events for metrics. Implementations must not block.
type Recorder interface {
	OrderSubmitted(symbol string)
	OrderCancelled(reason domain.CancelReason)
	OrderFilled(symbol string)
	FillError(symbol string)
	TickProcessed(symbol string, elapsed time.Duration)
	Balance(balance float64)
	QueueDepth(depth int)
}

type nopRecorder struct{}

func (nopRecorder) OrderSubmitted(string)               {}
func (nopRecorder) OrderCancelled(domain.CancelReason)  {}
func (nopRecorder) OrderFilled(string)                  {}
func (nopRecorder) FillError(string)                    {}
func (nopRecorder) TickProcessed(string, time.Duration) {}
func (nopRecorder) Balance(float64)                     {}
func (nopRecorder) QueueDepth(int)                      {}
