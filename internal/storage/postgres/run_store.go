package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, profile, scenario, strategy, started_at, from_ts, to_ts, tick_count,
	initial_balance, final_balance, total_trades, wins, losses, win_rate, loss_rate,
	profit_factor, profit_factor_infinite, realized_pnl, commission, max_drawdown`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSummary) error {
	query := `INSERT INTO sim_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Profile, r.Scenario, r.Strategy, r.StartedAt.UTC(),
		r.FromTs, r.ToTs, r.TickCount,
		r.InitialBalance, r.FinalBalance,
		r.TotalTrades, r.Wins, r.Losses, r.WinRate, r.LossRate,
		r.ProfitFactor, r.ProfitFactorInfinite,
		r.RealizedPnL, r.Commission, r.MaxDrawdown,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM sim_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns all runs ordered by started_at ASC, run_id ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM sim_runs ORDER BY started_at ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var r domain.RunSummary
	err := row.Scan(
		&r.RunID, &r.Profile, &r.Scenario, &r.Strategy, &r.StartedAt,
		&r.FromTs, &r.ToTs, &r.TickCount,
		&r.InitialBalance, &r.FinalBalance,
		&r.TotalTrades, &r.Wins, &r.Losses, &r.WinRate, &r.LossRate,
		&r.ProfitFactor, &r.ProfitFactorInfinite,
		&r.RealizedPnL, &r.Commission, &r.MaxDrawdown,
	)
	if err != nil {
		return nil, err
	}
	r.StartedAt = r.StartedAt.UTC()
	return &r, nil
}
