package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|order_id|fill_timestamp)
// Returns hex-encoded hash (64 characters).
//
// An order fills at most once, so the triple is unique within a run and
// identical runs replayed with the same run_id produce identical ids.
func ComputeTradeID(runID string, orderID uint64, fillTimestamp int64) string {
	data := fmt.Sprintf("%s|%d|%d", runID, orderID, fillTimestamp)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
