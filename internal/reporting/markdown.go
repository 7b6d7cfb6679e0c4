package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a single run as Markdown.
func RenderMarkdown(r *RunReport) string {
	var sb strings.Builder
	m := r.Metrics

	fmt.Fprintf(&sb, "# Simulation Run %s\n\n", r.RunID)
	fmt.Fprintf(&sb, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Strategy: %s | Profile: %s | Scenario: %s\n\n", orNone(r.Strategy), orNone(r.Profile), orNone(r.Scenario))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Ticks | %d |\n", r.Ticks)
	fmt.Fprintf(&sb, "| Range (ns) | %d .. %d |\n", r.FromTs, r.ToTs)
	fmt.Fprintf(&sb, "| Initial Balance | %s |\n", money(m.InitialBalance))
	fmt.Fprintf(&sb, "| Final Balance | %s |\n", money(m.FinalBalance))
	fmt.Fprintf(&sb, "| Realized PnL | %s |\n", money(m.RealizedPnL))
	fmt.Fprintf(&sb, "| Commission | %s |\n", money(m.Commission))
	fmt.Fprintf(&sb, "| Closed Trades | %d |\n", m.TotalTrades)
	fmt.Fprintf(&sb, "| Win Rate | %s |\n", percent(m.WinRate))
	fmt.Fprintf(&sb, "| Profit Factor | %s |\n", m.ProfitFactor)
	fmt.Fprintf(&sb, "| Max Drawdown | %s |\n", percent(m.MaxDrawdown))
	fmt.Fprintf(&sb, "| Max Consecutive Losses | %d |\n", m.MaxConsecutiveLosses)
	sb.WriteString("\n")

	sb.WriteString("## Orders\n\n")
	sb.WriteString("| Submitted | Filled | Cancelled | Dropped | Failed | Pending |\n")
	sb.WriteString("|-----------|--------|-----------|---------|--------|---------|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d | %d |\n\n",
		m.OrdersSubmitted, m.OrdersFilled, m.OrdersCancelled, m.OrdersDropped, m.OrdersFailed, m.OrdersPending)

	sb.WriteString("## Open Positions\n\n")
	open := 0
	for _, p := range r.Positions {
		if p.IsFlat() {
			continue
		}
		if open == 0 {
			sb.WriteString("| Symbol | Quantity | Avg Price | Mark | Unrealized |\n")
			sb.WriteString("|--------|----------|-----------|------|------------|\n")
		}
		open++
		fmt.Fprintf(&sb, "| %s | %g | %.4f | %.4f | %s |\n",
			p.Symbol, p.Quantity, p.AvgPrice, p.MarkPrice, money(p.UnrealizedPnL))
	}
	if open == 0 {
		sb.WriteString("No open positions.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderComparisonMarkdown renders all stored runs and the profile sensitivity table.
func RenderComparisonMarkdown(c *Comparison) string {
	var sb strings.Builder

	sb.WriteString("# Simulation Runs\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", c.GeneratedAt.Format(time.RFC3339))

	sb.WriteString("## Runs\n\n")
	if len(c.Runs) > 0 {
		sb.WriteString("| Run | Strategy | Profile | Scenario | Ticks | Trades | WinRate | PF | PnL | MaxDD |\n")
		sb.WriteString("|-----|----------|---------|----------|-------|--------|---------|----|-----|-------|\n")
		for _, r := range c.Runs {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d | %d | %.4f | %s | %s | %.4f |\n",
				r.RunID, r.Strategy, r.Profile, orNone(r.Scenario), r.Ticks, r.TotalTrades,
				r.WinRate, r.ProfitFactor, money(r.RealizedPnL), r.MaxDrawdown)
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Profile Sensitivity\n\n")
	if len(c.ProfileSensitivity) > 0 {
		sb.WriteString("| Strategy | Scenario | Optimistic | Realistic | Pessimistic | Degraded | Degradation% |\n")
		sb.WriteString("|----------|----------|------------|-----------|-------------|----------|--------------|\n")
		for _, s := range c.ProfileSensitivity {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %.2f |\n",
				s.Strategy, orNone(s.Scenario),
				money(s.OptimisticPnL), money(s.RealisticPnL), money(s.PessimisticPnL), money(s.DegradedPnL),
				s.DegradationPct)
		}
	} else {
		sb.WriteString("No profile sensitivity data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
