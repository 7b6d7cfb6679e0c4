package metrics

import (
	"encoding/json"
	"math"
	"strconv"
)

// ProfitFactor is wins divided by losses, with an explicit infinite state
// when there are wins and no losses.
type ProfitFactor struct {
	Value    float64
	Infinite bool
}

// Float returns the factor as a float64, +Inf when infinite.
func (p ProfitFactor) Float() float64 {
	if p.Infinite {
		return math.Inf(1)
	}
	return p.Value
}

// String formats the factor with two decimals, or "inf".
func (p ProfitFactor) String() string {
	if p.Infinite {
		return "inf"
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON encodes an infinite factor as the string "inf".
func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if p.Infinite {
		return json.Marshal("inf")
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts a number or the string "inf".
func (p *ProfitFactor) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "inf" {
			return &json.UnsupportedValueError{Str: s}
		}
		*p = ProfitFactor{Infinite: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = ProfitFactor{Value: v}
	return nil
}

// Report summarizes a simulation run.
type Report struct {
	NoData bool `json:"no_data"`

	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`

	// Closed-trade statistics
	TotalTrades          int          `json:"total_trades"`
	Wins                 int          `json:"wins"`
	Losses               int          `json:"losses"`
	WinRate              float64      `json:"win_rate"`
	LossRate             float64      `json:"loss_rate"`
	ProfitFactor         ProfitFactor `json:"profit_factor"`
	RealizedPnL          float64      `json:"realized_pnl"`
	Commission           float64      `json:"commission"`
	PnLMean              float64      `json:"pnl_mean"`
	PnLMedian            float64      `json:"pnl_median"`
	PnLStddev            float64      `json:"pnl_stddev"`
	MaxDrawdown          float64      `json:"max_drawdown"`
	MaxConsecutiveLosses int          `json:"max_consecutive_losses"`

	// Order activity
	Fills           int `json:"fills"`
	OrdersSubmitted int `json:"orders_submitted"`
	OrdersFilled    int `json:"orders_filled"`
	OrdersCancelled int `json:"orders_cancelled"`
	OrdersDropped   int `json:"orders_dropped"`
	OrdersFailed    int `json:"orders_failed"`
	OrdersPending   int `json:"orders_pending"`
}
