package domain

import "time"

// SessionStatus is the lifecycle state of a betting session.
type SessionStatus string

// Session status constants. STOPPED is terminal.
const (
	StatusRunning SessionStatus = "RUNNING"
	StatusPaused  SessionStatus = "PAUSED"
	StatusStopped SessionStatus = "STOPPED"
)

// Stop reason codes. Every stop carries exactly one of these.
const (
	StopReasonMaxConsecutiveLosses = "max_consecutive_losses"
	StopReasonStopLoss             = "stop_loss"
	StopReasonProfitTarget         = "profit_target"
	StopReasonTimeLimit            = "time_limit"
	StopReasonBalanceExhausted     = "balance_exhausted"
	StopReasonInsufficientBalance  = "insufficient_balance"
	StopReasonCommandFailure       = "command_failure"
	StopReasonManual               = "manual"
)

// Pause reason codes.
const (
	PauseReasonVerification = "verification_pending"
)

// SessionState is the mutable state of one betting session. It has a single
// owner, the risk engine, which mutates it exactly once per completed round
// and once per pause/resume transition.
type SessionState struct {
	SessionID       string
	StartingBalance float64 // set once at session start
	CurrentBalance  float64 // updated on every round outcome

	ConsecutiveLosses int
	NextBetBase       float64 // wager to use when the loss streak is zero
	CurrentBet        float64 // amount wagered on the pending round

	TotalRounds int
	TotalWins   int
	TotalLosses int

	StartedAt   time.Time
	Status      SessionStatus
	StopReason  string // set when Status == STOPPED
	PauseReason string // set while Status == PAUSED
}

// NetProfit returns the balance change since session start.
func (s *SessionState) NetProfit() float64 {
	return s.CurrentBalance - s.StartingBalance
}

// SessionRecord is the persisted form of a session.
type SessionRecord struct {
	SessionID       string
	StartingBalance float64
	FinalBalance    float64
	Status          SessionStatus
	StopReason      string
	StartedAt       time.Time
	FinishedAt      *time.Time
	TotalRounds     int
	TotalWins       int
	TotalLosses     int
}
