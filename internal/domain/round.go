package domain

// RoundResult is the resolution of a single wager.
type RoundResult string

// Round result constants. FAILED means the bet command never resolved; it is
// not a win or a loss and must leave session state untouched.
const (
	ResultWin    RoundResult = "WIN"
	ResultLoss   RoundResult = "LOSS"
	ResultFailed RoundResult = "FAILED"
)

// RoundOutcome is the transient resolution of one round as reported by the
// game. Consumed exactly once by the engine, not retained.
type RoundOutcome struct {
	Result    RoundResult
	BetAmount float64
	// BalanceDelta is positive for a win (net of stake) and negative for a
	// lost stake. Zero for FAILED.
	BalanceDelta float64
}

// RoundRecord is a persisted, resolved round.
type RoundRecord struct {
	RoundID    string // deterministic hash of (session_id, round_index)
	SessionID  string
	RoundIndex int

	BetAmount     float64
	Result        RoundResult
	BalanceBefore float64
	BalanceAfter  float64

	// ConsecutiveLosses is the streak length after this round resolved.
	ConsecutiveLosses int

	TimestampMs int64
}
