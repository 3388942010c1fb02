package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a configuration field is outside its
// declared domain. Fatal at initialization; the engine refuses to start.
var ErrInvalidConfig = errors.New("invalid config")

// BetBaseReference selects the balance used to recompute the bet base when a
// win resets the loss streak. The max-bet cap, stop-loss and profit-target
// always use the fixed session starting balance.
type BetBaseReference string

const (
	// RefCurrentBalance recomputes the base from the balance at the moment
	// the loss streak resets to zero.
	RefCurrentBalance BetBaseReference = "current"

	// RefStartingBalance keeps the session starting balance as the base
	// reference for the whole session.
	RefStartingBalance BetBaseReference = "starting"
)

// RiskConfig holds the betting strategy and risk management parameters for a
// single session. Immutable once the session starts.
type RiskConfig struct {
	// Betting strategy
	InitialBetPct        float64 // fraction of reference balance, (0,1]
	LossMultiplier       float64 // escalation factor per consecutive loss, >= 1.0
	MinBetAmount         float64 // floor for any wager, >= 0
	MaxConsecutiveLosses int     // stop after this many uninterrupted losses, >= 1
	BetBaseReference     BetBaseReference

	// Risk controls
	MaxBetPct          float64 // cap as fraction of starting balance, (0,1]
	EnableStopLoss     bool
	StopLossPct        float64 // (0,1]
	EnableProfitTarget bool
	ProfitTargetPct    float64 // > 0
	EnableTimeLimit    bool
	TimeLimit          time.Duration // > 0
}

// Validate checks every field against its declared range.
// All violations wrap ErrInvalidConfig.
func (c *RiskConfig) Validate() error {
	if c.InitialBetPct <= 0 || c.InitialBetPct > 1 {
		return fmt.Errorf("%w: initial_bet_pct %v outside (0,1]", ErrInvalidConfig, c.InitialBetPct)
	}
	if c.LossMultiplier < 1 {
		return fmt.Errorf("%w: loss_multiplier %v below 1.0", ErrInvalidConfig, c.LossMultiplier)
	}
	if c.MinBetAmount < 0 {
		return fmt.Errorf("%w: min_bet_amount %v negative", ErrInvalidConfig, c.MinBetAmount)
	}
	if c.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("%w: max_consecutive_losses %d below 1", ErrInvalidConfig, c.MaxConsecutiveLosses)
	}
	if c.MaxBetPct <= 0 || c.MaxBetPct > 1 {
		return fmt.Errorf("%w: max_bet_pct %v outside (0,1]", ErrInvalidConfig, c.MaxBetPct)
	}
	if c.EnableStopLoss && (c.StopLossPct <= 0 || c.StopLossPct > 1) {
		return fmt.Errorf("%w: stop_loss_pct %v outside (0,1]", ErrInvalidConfig, c.StopLossPct)
	}
	if c.EnableProfitTarget && c.ProfitTargetPct <= 0 {
		return fmt.Errorf("%w: profit_target_pct %v not positive", ErrInvalidConfig, c.ProfitTargetPct)
	}
	if c.EnableTimeLimit && c.TimeLimit <= 0 {
		return fmt.Errorf("%w: time_limit %v not positive", ErrInvalidConfig, c.TimeLimit)
	}
	switch c.BetBaseReference {
	case RefCurrentBalance, RefStartingBalance:
	default:
		return fmt.Errorf("%w: bet_base_reference %q unknown", ErrInvalidConfig, c.BetBaseReference)
	}
	return nil
}
