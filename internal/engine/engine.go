// Package engine implements the risk/betting decision engine: the single
// owner of session state. Given the previous round outcome and the risk
// configuration it sizes the next wager or halts the session.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"coinflip-pilot/internal/domain"
)

// ErrSessionStopped is returned by mutating operations once the session has
// reached its terminal STOPPED state.
var ErrSessionStopped = errors.New("session stopped")

// Engine owns one session's state. All mutation happens through its methods
// under a single mutex, so an externally requested pause is linearizable with
// the round loop: it takes effect no later than the next NextBet call and
// never interrupts an in-flight computation.
type Engine struct {
	mu    sync.Mutex
	cfg   domain.RiskConfig
	state domain.SessionState
	now   func() time.Time
}

// Option configures optional engine behavior.
type Option func(*Engine)

// WithClock injects the time source. Used by tests and the simulator.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSessionID fixes the session ID instead of generating one.
func WithSessionID(id string) Option {
	return func(e *Engine) { e.state.SessionID = id }
}

// New validates the configuration and creates a running session.
// The starting balance becomes the fixed reference for the max-bet cap,
// stop-loss and profit-target for the whole session.
func New(cfg domain.RiskConfig, startingBalance float64, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if startingBalance <= 0 {
		return nil, fmt.Errorf("%w: starting balance %v not positive", domain.ErrInvalidConfig, startingBalance)
	}

	e := &Engine{
		cfg: cfg,
		now: time.Now,
		state: domain.SessionState{
			SessionID:       uuid.NewString(),
			StartingBalance: startingBalance,
			CurrentBalance:  startingBalance,
			NextBetBase:     math.Max(cfg.MinBetAmount, cfg.InitialBetPct*startingBalance),
			Status:          domain.StatusRunning,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state.StartedAt = e.now()
	return e, nil
}

// NextBet sizes the upcoming wager. Called before each round, never after an
// outcome. While paused or stopped it returns the current status unchanged.
func (e *Engine) NextBet() (Decision, []domain.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state.Status {
	case domain.StatusPaused:
		return PauseDecision(e.state.PauseReason), nil
	case domain.StatusStopped:
		return StopDecision(e.state.StopReason), nil
	}

	// Progressive escalation from the last base. The base itself resets on
	// every win, so the multiplier is never compounded across streaks.
	candidate := e.state.NextBetBase *
		math.Pow(e.cfg.LossMultiplier, float64(e.state.ConsecutiveLosses))

	amount := math.Round(candidate)

	// The cap is a fraction of the session starting balance, truncated to a
	// whole currency unit so rounding can never push a wager above it.
	maxBet := math.Floor(e.cfg.MaxBetPct * e.state.StartingBalance)
	if amount > maxBet {
		amount = maxBet
	}
	if amount < e.cfg.MinBetAmount {
		amount = e.cfg.MinBetAmount
	}

	if amount > e.state.CurrentBalance {
		ev := e.stopLocked(domain.StopReasonInsufficientBalance)
		return StopDecision(domain.StopReasonInsufficientBalance), []domain.Event{ev}
	}

	e.state.CurrentBet = amount
	return BetDecision(amount), []domain.Event{{
		Type:      domain.EventBetRequested,
		At:        e.now(),
		SessionID: e.state.SessionID,
		Amount:    amount,
		Balance:   e.state.CurrentBalance,
	}}
}

// ApplyOutcome applies one resolved round: updates the balance and loss
// streak, then evaluates the stop conditions in their fixed order. A FAILED
// outcome is a no-op; the same amount is re-offered on the next NextBet.
func (e *Engine) ApplyOutcome(out domain.RoundOutcome) ([]domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status == domain.StatusStopped {
		return nil, ErrSessionStopped
	}
	if out.Result == domain.ResultFailed {
		return nil, nil
	}

	e.state.CurrentBalance += out.BalanceDelta
	e.state.TotalRounds++

	switch out.Result {
	case domain.ResultLoss:
		e.state.TotalLosses++
		e.state.ConsecutiveLosses++
	case domain.ResultWin:
		e.state.TotalWins++
		e.state.ConsecutiveLosses = 0
		ref := e.state.StartingBalance
		if e.cfg.BetBaseReference == domain.RefCurrentBalance {
			ref = e.state.CurrentBalance
		}
		e.state.NextBetBase = math.Max(e.cfg.MinBetAmount, e.cfg.InitialBetPct*ref)
	default:
		return nil, fmt.Errorf("unknown round result %q", out.Result)
	}

	events := []domain.Event{{
		Type:              domain.EventRoundResolved,
		At:                e.now(),
		SessionID:         e.state.SessionID,
		Result:            out.Result,
		Amount:            out.BetAmount,
		Balance:           e.state.CurrentBalance,
		ConsecutiveLosses: e.state.ConsecutiveLosses,
	}}

	if reason := e.evalStopLocked(); reason != "" {
		events = append(events, e.stopLocked(reason))
	}
	return events, nil
}

// evalStopLocked checks the stop conditions in their fixed order and returns
// the first matching reason, or "".
func (e *Engine) evalStopLocked() string {
	switch {
	case e.state.ConsecutiveLosses >= e.cfg.MaxConsecutiveLosses:
		return domain.StopReasonMaxConsecutiveLosses
	case e.cfg.EnableStopLoss &&
		e.state.CurrentBalance <= e.state.StartingBalance*(1-e.cfg.StopLossPct):
		return domain.StopReasonStopLoss
	case e.cfg.EnableProfitTarget &&
		e.state.CurrentBalance >= e.state.StartingBalance*(1+e.cfg.ProfitTargetPct):
		return domain.StopReasonProfitTarget
	case e.cfg.EnableTimeLimit && e.now().Sub(e.state.StartedAt) >= e.cfg.TimeLimit:
		return domain.StopReasonTimeLimit
	case e.state.CurrentBalance <= 0:
		// Always enforced regardless of config flags.
		return domain.StopReasonBalanceExhausted
	}
	return ""
}

// stopLocked transitions to the terminal STOPPED state and returns the
// stopped event carrying the final statistics.
func (e *Engine) stopLocked(reason string) domain.Event {
	e.state.Status = domain.StatusStopped
	e.state.StopReason = reason
	e.state.PauseReason = ""
	return domain.Event{
		Type:        domain.EventStopped,
		At:          e.now(),
		SessionID:   e.state.SessionID,
		Balance:     e.state.CurrentBalance,
		Reason:      reason,
		TotalRounds: e.state.TotalRounds,
		TotalWins:   e.state.TotalWins,
		TotalLosses: e.state.TotalLosses,
	}
}

// Pause transitions RUNNING to PAUSED. Pausing an already paused session is a
// no-op. Resuming is always an explicit external decision.
func (e *Engine) Pause(reason string) ([]domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state.Status {
	case domain.StatusStopped:
		return nil, ErrSessionStopped
	case domain.StatusPaused:
		return nil, nil
	}

	e.state.Status = domain.StatusPaused
	e.state.PauseReason = reason
	return []domain.Event{{
		Type:      domain.EventPaused,
		At:        e.now(),
		SessionID: e.state.SessionID,
		Balance:   e.state.CurrentBalance,
		Reason:    reason,
	}}, nil
}

// Resume transitions PAUSED back to RUNNING. Resuming a running session is a
// no-op.
func (e *Engine) Resume() ([]domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state.Status {
	case domain.StatusStopped:
		return nil, ErrSessionStopped
	case domain.StatusRunning:
		return nil, nil
	}

	e.state.Status = domain.StatusRunning
	e.state.PauseReason = ""
	return []domain.Event{{
		Type:      domain.EventResumed,
		At:        e.now(),
		SessionID: e.state.SessionID,
		Balance:   e.state.CurrentBalance,
	}}, nil
}

// Stop ends the session on an external request (operator shutdown, exhausted
// command retries). Stopping an already stopped session is a no-op.
func (e *Engine) Stop(reason string) ([]domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status == domain.StatusStopped {
		return nil, nil
	}
	return []domain.Event{e.stopLocked(reason)}, nil
}

// SyncBalance replaces the tracked balance with an authoritative value from
// the game, e.g. after a reconnect, and re-evaluates the stop conditions.
func (e *Engine) SyncBalance(balance float64) ([]domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status == domain.StatusStopped {
		return nil, ErrSessionStopped
	}

	e.state.CurrentBalance = balance
	events := []domain.Event{{
		Type:      domain.EventBalanceSynced,
		At:        e.now(),
		SessionID: e.state.SessionID,
		Balance:   balance,
	}}

	if reason := e.evalStopLocked(); reason != "" {
		events = append(events, e.stopLocked(reason))
	}
	return events, nil
}

// Snapshot returns a copy of the session state for observers.
func (e *Engine) Snapshot() domain.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Elapsed returns the time since session start.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Sub(e.state.StartedAt)
}
