package clickhouse

import (
	"context"
	"fmt"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// EquityStore implements storage.EquityStore using ClickHouse.
type EquityStore struct {
	conn *Conn
}

// NewEquityStore creates a new EquityStore.
func NewEquityStore(conn *Conn) *EquityStore {
	return &EquityStore{conn: conn}
}

var _ storage.EquityStore = (*EquityStore)(nil)

// InsertBulk appends equity points. Fails entire batch on duplicate (run_id, seq).
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
func (s *EquityStore) InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(points))
	for _, p := range points {
		if p.Seq < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[p.Seq]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.Seq] = struct{}{}
	}

	existing, err := s.existingSeqs(ctx, runID)
	if err != nil {
		return err
	}
	for _, p := range points {
		if _, exists := existing[p.Seq]; exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_points (run_id, seq, timestamp_ns, balance)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(runID, uint32(p.Seq), p.Timestamp, p.Balance); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves the equity curve of a run ordered by seq ASC.
func (s *EquityStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error) {
	query := `
		SELECT seq, timestamp_ns, balance
		FROM equity_points
		WHERE run_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity points: %w", err)
	}
	defer rows.Close()

	var result []domain.EquityPoint
	for rows.Next() {
		var (
			p   domain.EquityPoint
			seq uint32
		)
		if err := rows.Scan(&seq, &p.Timestamp, &p.Balance); err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}
		p.Seq = int(seq)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity points: %w", err)
	}
	return result, nil
}

func (s *EquityStore) existingSeqs(ctx context.Context, runID string) (map[int]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT seq FROM equity_points WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query existing seqs: %w", err)
	}
	defer rows.Close()

	out := make(map[int]struct{})
	for rows.Next() {
		var seq uint32
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("scan seq: %w", err)
		}
		out[int(seq)] = struct{}{}
	}
	return out, rows.Err()
}
