package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders run rows as CSV.
func RenderCSV(rows []RunRow) string {
	var sb strings.Builder

	sb.WriteString("run_id,strategy,profile,scenario,ticks,total_trades,win_rate,")
	sb.WriteString("profit_factor,realized_pnl,final_balance,max_drawdown\n")

	for _, r := range rows {
		fmt.Fprintf(&sb, "%s,%s,%s,%s,%d,%d,%.6f,%s,%s,%s,%.6f\n",
			r.RunID,
			r.Strategy,
			r.Profile,
			r.Scenario,
			r.Ticks,
			r.TotalTrades,
			r.WinRate,
			r.ProfitFactor,
			money(r.RealizedPnL),
			money(r.FinalBalance),
			r.MaxDrawdown,
		)
	}

	return sb.String()
}

// RenderClosedTradesCSV renders the closed-trade log of a run.
func RenderClosedTradesCSV(r *RunReport) string {
	var sb strings.Builder

	sb.WriteString("order_id,symbol,side,quantity,entry_price,exit_price,pnl,balance_after,timestamp_ns\n")
	for _, c := range r.Closed {
		fmt.Fprintf(&sb, "%d,%s,%s,%g,%.6f,%.6f,%s,%s,%d\n",
			c.OrderID, c.Symbol, c.Side, c.Quantity,
			c.EntryPrice, c.ExitPrice, money(c.PnL), money(c.BalanceAfter), c.Timestamp)
	}
	return sb.String()
}
