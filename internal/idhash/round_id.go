// Package idhash computes deterministic record identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRoundID computes a deterministic round_id using SHA256.
// Formula: SHA256(session_id|round_index)
// Returns hex-encoded hash (64 characters).
func ComputeRoundID(sessionID string, roundIndex int) string {
	data := fmt.Sprintf("%s|%d", sessionID, roundIndex)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
