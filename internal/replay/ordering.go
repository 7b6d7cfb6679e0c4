package replay

import (
	"fmt"
	"sort"

	"market-sim-lab/internal/domain"
)

// SortRecords orders records by (timestamp ASC, symbol ASC).
// The sort is stable so records sharing both keys keep their input order.
func SortRecords(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return compareRecords(records[i], records[j]) < 0
	})
}

// ValidateOrdering returns ErrInvalidOrdering if any timestamp decreases.
func ValidateOrdering(records []domain.Record) error {
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp < records[i-1].Timestamp {
			return fmt.Errorf("%w: index %d at %d after %d",
				ErrInvalidOrdering, i, records[i].Timestamp, records[i-1].Timestamp)
		}
	}
	return nil
}

// compareRecords returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC, symbol ASC)
func compareRecords(a, b domain.Record) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	return 0
}
