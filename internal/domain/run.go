package domain

import "time"

// RunSummary is the persisted outcome of one simulation run.
type RunSummary struct {
	RunID                string
	Profile              string
	Scenario             string // active static scenario, empty if none
	Strategy             string
	StartedAt            time.Time
	FromTs               int64
	ToTs                 int64
	TickCount            int
	InitialBalance       float64
	FinalBalance         float64
	TotalTrades          int
	Wins                 int
	Losses               int
	WinRate              float64
	LossRate             float64
	ProfitFactor         float64 // 0 when infinite
	ProfitFactorInfinite bool
	RealizedPnL          float64
	Commission           float64
	MaxDrawdown          float64
}
