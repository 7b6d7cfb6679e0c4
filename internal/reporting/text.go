package reporting

import (
	"fmt"
	"strings"

	"market-sim-lab/internal/metrics"
)

// RenderText renders the classic performance report. extended appends
// drawdown, commission and order activity after the core figures.
func RenderText(r metrics.Report, extended bool) string {
	var sb strings.Builder

	sb.WriteString("=== PERFORMANCE REPORT ===\n")
	fmt.Fprintf(&sb, "Initial Balance: %s\n", money(r.InitialBalance))
	fmt.Fprintf(&sb, "Final Balance: %s\n", money(r.FinalBalance))
	fmt.Fprintf(&sb, "Total Trades: %d\n", r.TotalTrades)
	fmt.Fprintf(&sb, "Win Rate: %s\n", percent(r.WinRate))
	fmt.Fprintf(&sb, "Loss Rate: %s\n", percent(r.LossRate))
	fmt.Fprintf(&sb, "Profit Factor: %s\n", r.ProfitFactor)

	if extended {
		if r.NoData {
			sb.WriteString("No fills.\n")
		}
		fmt.Fprintf(&sb, "Realized PnL: %s\n", money(r.RealizedPnL))
		fmt.Fprintf(&sb, "Commission: %s\n", money(r.Commission))
		fmt.Fprintf(&sb, "PnL Mean/Median/Stddev: %s / %s / %s\n",
			money(r.PnLMean), money(r.PnLMedian), money(r.PnLStddev))
		fmt.Fprintf(&sb, "Max Drawdown: %s\n", percent(r.MaxDrawdown))
		fmt.Fprintf(&sb, "Max Consecutive Losses: %d\n", r.MaxConsecutiveLosses)
		fmt.Fprintf(&sb, "Orders: submitted=%d filled=%d cancelled=%d dropped=%d failed=%d pending=%d\n",
			r.OrdersSubmitted, r.OrdersFilled, r.OrdersCancelled, r.OrdersDropped, r.OrdersFailed, r.OrdersPending)
	}

	sb.WriteString("==========================\n")
	return sb.String()
}
