package domain

import "time"

// EventType identifies a structured engine event.
type EventType string

// Event type constants.
const (
	EventSessionStarted EventType = "session_started"
	EventBetRequested   EventType = "bet_requested"
	EventRoundResolved  EventType = "round_resolved"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
	EventBalanceSynced  EventType = "balance_synced"
	EventStopped        EventType = "stopped"
)

// Event is a structured notification emitted by the engine. Exactly one event
// is emitted per session-state mutation; observers have no decision authority.
type Event struct {
	Type      EventType
	At        time.Time
	SessionID string

	Amount            float64     // bet_requested
	Result            RoundResult // round_resolved
	Balance           float64
	ConsecutiveLosses int

	Reason string // paused, stopped

	// Final statistics, populated on stopped.
	TotalRounds int
	TotalWins   int
	TotalLosses int
}
