// Package session drives a betting session end to end: one logical thread of
// control that asks the engine for decisions, executes them against the game
// and persists what happened.
package session

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/engine"
	"coinflip-pilot/internal/game"
	"coinflip-pilot/internal/idhash"
	"coinflip-pilot/internal/metrics"
	"coinflip-pilot/internal/notifier"
	"coinflip-pilot/internal/observability"
	"coinflip-pilot/internal/storage"
)

// pausePollInterval is how often the loop rechecks a paused session.
const pausePollInterval = 500 * time.Millisecond

// Config holds the runner's pacing and retry settings.
type Config struct {
	// CommandRetries is how many times a failed bet command is retried
	// before the session stops with command_failure.
	CommandRetries int

	// BetDelayMin and BetDelayMax bound the jittered delay between rounds.
	BetDelayMin time.Duration
	BetDelayMax time.Duration
}

// Runner executes one session. External pause/stop requests are forwarded to
// the engine immediately and take effect at the next round boundary.
type Runner struct {
	eng      *engine.Engine
	client   game.Client
	notifier notifier.Notifier
	sessions storage.SessionStore
	rounds   storage.RoundStore
	archive  storage.RoundArchiveStore
	cfg      Config
	log      zerolog.Logger
	rng      *rand.Rand
}

// Option configures optional runner collaborators.
type Option func(*Runner)

// WithSessionStore persists the session row at start and finish.
func WithSessionStore(s storage.SessionStore) Option {
	return func(r *Runner) { r.sessions = s }
}

// WithRoundStore persists every resolved round.
func WithRoundStore(s storage.RoundStore) Option {
	return func(r *Runner) { r.rounds = s }
}

// WithRoundArchive bulk-archives all rounds when the session finishes.
func WithRoundArchive(s storage.RoundArchiveStore) Option {
	return func(r *Runner) { r.archive = s }
}

// WithRand injects the jitter source. Used by tests.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// New creates a runner around an already constructed engine and game client.
func New(eng *engine.Engine, client game.Client, n notifier.Notifier, cfg Config, log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		eng:      eng,
		client:   client,
		notifier: n,
		cfg:      cfg,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RequestPause asks the engine to pause. Safe from any goroutine; the pause
// takes effect no later than the next round boundary.
func (r *Runner) RequestPause(reason string) {
	events, err := r.eng.Pause(reason)
	if err != nil {
		if !errors.Is(err, engine.ErrSessionStopped) {
			r.log.Error().Err(err).Msg("pause request failed")
		}
		return
	}
	r.publish(events)
	if len(events) > 0 {
		observability.RecordPause(reason)
	}
}

// Resume asks the engine to resume a paused session.
func (r *Runner) Resume() {
	events, err := r.eng.Resume()
	if err != nil {
		if !errors.Is(err, engine.ErrSessionStopped) {
			r.log.Error().Err(err).Msg("resume request failed")
		}
		return
	}
	r.publish(events)
}

// SyncBalance replaces the engine's tracked balance with an authoritative
// value from the game and publishes the resulting events.
func (r *Runner) SyncBalance(balance float64) {
	events, err := r.eng.SyncBalance(balance)
	if err != nil {
		if !errors.Is(err, engine.ErrSessionStopped) {
			r.log.Error().Err(err).Msg("balance sync failed")
		}
		return
	}
	r.publish(events)
}

// RequestStop ends the session with the given reason.
func (r *Runner) RequestStop(reason string) {
	events, err := r.eng.Stop(reason)
	if err != nil {
		r.log.Error().Err(err).Msg("stop request failed")
		return
	}
	r.publish(events)
}

// Run executes the round loop until the session stops or the context is
// canceled. It returns the final summary computed from the resolved rounds.
func (r *Runner) Run(ctx context.Context) (*domain.SessionSummary, error) {
	start := r.eng.Snapshot()

	record := &domain.SessionRecord{
		SessionID:       start.SessionID,
		StartingBalance: start.StartingBalance,
		Status:          domain.StatusRunning,
		StartedAt:       start.StartedAt,
	}
	if r.sessions != nil {
		if err := r.sessions.Insert(ctx, record); err != nil {
			return nil, err
		}
	}

	r.notifier.Publish(domain.Event{
		Type:      domain.EventSessionStarted,
		At:        start.StartedAt,
		SessionID: start.SessionID,
		Balance:   start.StartingBalance,
	})
	observability.RecordSessionStarted()

	var resolved []*domain.RoundRecord
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			r.RequestStop(domain.StopReasonManual)
		}

		decision, events := r.eng.NextBet()
		r.publish(events)

		switch decision.Kind {
		case engine.DecisionStop:
			return r.finish(ctx, record, resolved)

		case engine.DecisionPause:
			if err := r.sleep(ctx, pausePollInterval); err != nil {
				r.RequestStop(domain.StopReasonManual)
			}
			continue
		}

		observability.RecordBet(decision.Amount)
		before := r.eng.Snapshot().CurrentBalance

		outcome, err := r.client.PlaceBet(ctx, decision.Amount)
		if err != nil {
			outcome = &domain.RoundOutcome{Result: domain.ResultFailed, BetAmount: decision.Amount}
		}

		if outcome.Result == domain.ResultFailed {
			observability.RecordCommandFailure()
			failures++
			if failures > r.cfg.CommandRetries {
				r.log.Error().Int("failures", failures).Msg("bet command retries exhausted")
				r.RequestStop(domain.StopReasonCommandFailure)
				continue
			}
			observability.RecordCommandRetry()
			r.log.Warn().
				Int("attempt", failures).
				Float64("amount", decision.Amount).
				Msg("bet command failed, retrying")
			if err := r.sleep(ctx, r.betDelay()); err != nil {
				r.RequestStop(domain.StopReasonManual)
			}
			continue
		}
		failures = 0

		events, err = r.eng.ApplyOutcome(*outcome)
		if err != nil {
			if errors.Is(err, engine.ErrSessionStopped) {
				return r.finish(ctx, record, resolved)
			}
			return nil, err
		}
		r.publish(events)

		snap := r.eng.Snapshot()
		observability.RecordRound(string(outcome.Result), snap.CurrentBalance, snap.NetProfit(), snap.ConsecutiveLosses)

		round := &domain.RoundRecord{
			RoundID:           idhash.ComputeRoundID(snap.SessionID, snap.TotalRounds-1),
			SessionID:         snap.SessionID,
			RoundIndex:        snap.TotalRounds - 1,
			BetAmount:         outcome.BetAmount,
			Result:            outcome.Result,
			BalanceBefore:     before,
			BalanceAfter:      snap.CurrentBalance,
			ConsecutiveLosses: snap.ConsecutiveLosses,
			TimestampMs:       time.Now().UnixMilli(),
		}
		resolved = append(resolved, round)

		if r.rounds != nil {
			if err := r.rounds.Insert(ctx, round); err != nil {
				r.log.Error().Err(err).Str("round_id", round.RoundID).Msg("persist round failed")
			}
		}

		if snap.Status == domain.StatusStopped {
			return r.finish(ctx, record, resolved)
		}

		if err := r.sleep(ctx, r.betDelay()); err != nil {
			r.RequestStop(domain.StopReasonManual)
		}
	}
}

// finish persists the terminal session row, archives the rounds and computes
// the summary.
func (r *Runner) finish(ctx context.Context, record *domain.SessionRecord, rounds []*domain.RoundRecord) (*domain.SessionSummary, error) {
	snap := r.eng.Snapshot()
	finishedAt := time.Now()

	// Final persistence still runs when the loop exits on a canceled context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	record.FinalBalance = snap.CurrentBalance
	record.Status = snap.Status
	record.StopReason = snap.StopReason
	record.FinishedAt = &finishedAt
	record.TotalRounds = snap.TotalRounds
	record.TotalWins = snap.TotalWins
	record.TotalLosses = snap.TotalLosses

	observability.RecordSessionStopped(snap.StopReason)

	if r.sessions != nil {
		if err := r.sessions.Finish(ctx, record); err != nil {
			r.log.Error().Err(err).Msg("persist session finish failed")
		}
	}
	if r.archive != nil && len(rounds) > 0 {
		if err := r.archive.InsertBulk(ctx, rounds); err != nil {
			r.log.Error().Err(err).Msg("archive rounds failed")
		}
	}

	summary := metrics.ComputeSummary(record, rounds)
	r.log.Info().
		Str("session_id", summary.SessionID).
		Str("stop_reason", summary.StopReason).
		Int("rounds", summary.TotalRounds).
		Float64("net_profit", summary.NetProfit).
		Msg("session finished")
	return summary, nil
}

// betDelay returns a uniformly jittered inter-round delay.
func (r *Runner) betDelay() time.Duration {
	min, max := r.cfg.BetDelayMin, r.cfg.BetDelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(r.rng.Int63n(int64(max-min)))
}

// sleep waits for d or until the context is canceled.
func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Runner) publish(events []domain.Event) {
	for _, ev := range events {
		r.notifier.Publish(ev)
	}
}
