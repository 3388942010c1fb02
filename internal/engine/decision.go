package engine

// DecisionKind classifies the engine's verdict for the upcoming round.
type DecisionKind string

// Decision kind constants.
const (
	DecisionBet   DecisionKind = "BET"
	DecisionStop  DecisionKind = "STOP"
	DecisionPause DecisionKind = "PAUSE"
)

// Decision is the engine's verdict for the upcoming round: wager Amount,
// stop the session, or hold while paused.
type Decision struct {
	Kind   DecisionKind
	Amount float64 // set when Kind == DecisionBet
	Reason string  // set when Kind is DecisionStop or DecisionPause
}

// BetDecision wagers the given amount.
func BetDecision(amount float64) Decision {
	return Decision{Kind: DecisionBet, Amount: amount}
}

// StopDecision ends the session for the given reason.
func StopDecision(reason string) Decision {
	return Decision{Kind: DecisionStop, Reason: reason}
}

// PauseDecision holds betting until an explicit resume.
func PauseDecision(reason string) Decision {
	return Decision{Kind: DecisionPause, Reason: reason}
}
