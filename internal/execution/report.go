package execution

import "market-sim-lab/internal/metrics"

// Report computes the run report from the current ledger and order state.
func (s *Simulator) Report() metrics.Report {
	return metrics.Compute(metrics.Input{
		InitialBalance: s.ledger.InitialBalance(),
		FinalBalance:   s.ledger.Balance(),
		Commission:     s.ledger.TotalCommission(),
		Trades:         s.ledger.Trades(),
		Closed:         s.ledger.ClosedTrades(),
		Equity:         s.ledger.EquityCurve(),
		Orders:         s.queue.Orders(),
	})
}
