package domain

import (
	"fmt"
	"time"
)

// ExecutionProfile bundles execution conditions applied by the simulator.
type ExecutionProfile struct {
	Name        string        // "optimistic" | "realistic" | "pessimistic" | "degraded"
	Latency     time.Duration // submission to eligibility delay
	SlippageBps float64       // adverse slippage in basis points
	Commission  float64       // fixed commission per fill
}

// Profile name constants
const (
	ProfileOptimistic  = "optimistic"
	ProfileRealistic   = "realistic"
	ProfilePessimistic = "pessimistic"
	ProfileDegraded    = "degraded"
)

// Predefined execution profiles.
var (
	ProfileConfigOptimistic = ExecutionProfile{
		Name:        ProfileOptimistic,
		Latency:     time.Millisecond,
		SlippageBps: 0.5,
		Commission:  0,
	}

	ProfileConfigRealistic = ExecutionProfile{
		Name:        ProfileRealistic,
		Latency:     50 * time.Millisecond,
		SlippageBps: 5,
		Commission:  1,
	}

	ProfileConfigPessimistic = ExecutionProfile{
		Name:        ProfilePessimistic,
		Latency:     500 * time.Millisecond,
		SlippageBps: 25,
		Commission:  2.5,
	}

	ProfileConfigDegraded = ExecutionProfile{
		Name:        ProfileDegraded,
		Latency:     2 * time.Second,
		SlippageBps: 100,
		Commission:  5,
	}
)

// ProfileByName returns the preset registered under name.
func ProfileByName(name string) (ExecutionProfile, error) {
	switch name {
	case ProfileOptimistic:
		return ProfileConfigOptimistic, nil
	case ProfileRealistic:
		return ProfileConfigRealistic, nil
	case ProfilePessimistic:
		return ProfileConfigPessimistic, nil
	case ProfileDegraded:
		return ProfileConfigDegraded, nil
	default:
		return ExecutionProfile{}, fmt.Errorf("unknown execution profile %q", name)
	}
}
