// Package main dry-runs the risk engine against a simulated coinflip: random
// or scripted outcomes instead of a live game. Useful for tuning risk
// settings before risking a real balance.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/engine"
	"coinflip-pilot/internal/game"
	"coinflip-pilot/internal/notifier"
	"coinflip-pilot/internal/session"
	"coinflip-pilot/internal/storage/memory"
)

func main() {
	balance := flag.Float64("balance", 100000, "Starting balance")
	initialBetPct := flag.Float64("initial-bet-pct", 0.01, "Initial bet as fraction of balance")
	lossMultiplier := flag.Float64("loss-multiplier", 2.5, "Bet multiplier after each loss")
	minBet := flag.Float64("min-bet", 1, "Minimum bet amount")
	maxLosses := flag.Int("max-losses", 10, "Stop after this many consecutive losses")
	maxBetPct := flag.Float64("max-bet-pct", 0.1, "Bet cap as fraction of starting balance")
	stopLossPct := flag.Float64("stop-loss-pct", 0.5, "Stop when balance drops by this fraction")
	profitTargetPct := flag.Float64("profit-target-pct", 0, "Stop when balance grows by this fraction (0 disables)")
	reference := flag.String("reference", "current", "Bet base reference after a win: current or starting")
	winRate := flag.Float64("win-rate", 0.5, "Probability of winning each round")
	seed := flag.Int64("seed", 1, "Random seed")
	maxRounds := flag.Int("max-rounds", 1000, "Round limit for the simulation")
	script := flag.String("script", "", "Fixed outcome script, e.g. WLLWL (overrides win-rate)")
	jsonOut := flag.Bool("json", false, "Print the summary as JSON")
	verbose := flag.Bool("verbose", false, "Log every engine event")
	flag.Parse()

	cfg := domain.RiskConfig{
		InitialBetPct:        *initialBetPct,
		LossMultiplier:       *lossMultiplier,
		MinBetAmount:         *minBet,
		MaxConsecutiveLosses: *maxLosses,
		BetBaseReference:     domain.BetBaseReference(*reference),
		MaxBetPct:            *maxBetPct,
		EnableStopLoss:       *stopLossPct > 0,
		StopLossPct:          *stopLossPct,
		EnableProfitTarget:   *profitTargetPct > 0,
		ProfitTargetPct:      *profitTargetPct,
	}

	eng, err := engine.New(cfg, *balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	client := newSimClient(*script, *winRate, *maxRounds, rand.New(rand.NewSource(*seed)))

	var sink notifier.Notifier = notifier.NewMemory()
	if *verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		sink = notifier.NewLogNotifier(log)
	}

	runner := session.New(eng, client, sink, session.Config{CommandRetries: 1}, zerolog.Nop(),
		session.WithSessionStore(memory.NewSessionStore()),
		session.WithRoundStore(memory.NewRoundStore()),
	)

	summary, err := runner.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Encode summary: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printSummary(summary)
}

func printSummary(s *domain.SessionSummary) {
	fmt.Println("=== Simulation Summary ===")
	fmt.Printf("Session:            %s\n", s.SessionID)
	fmt.Printf("Stop reason:        %s\n", s.StopReason)
	fmt.Printf("Starting balance:   %.0f\n", s.StartingBalance)
	fmt.Printf("Final balance:      %.0f\n", s.FinalBalance)
	fmt.Printf("Net profit:         %+.0f\n", s.NetProfit)
	fmt.Printf("Rounds:             %d (%d W / %d L, %.1f%% win rate)\n",
		s.TotalRounds, s.Wins, s.Losses, s.WinRatePct)
	fmt.Printf("Peak / trough:      %.0f / %.0f\n", s.PeakBalance, s.TroughBalance)
	fmt.Printf("Max drawdown:       %.1f%%\n", s.MaxDrawdownPct)
	fmt.Printf("Longest loss run:   %d\n", s.LongestLossStreak)
	fmt.Printf("Biggest win / loss: %+.0f / -%.0f\n", s.BiggestWin, s.BiggestLoss)
}

// simClient resolves bets immediately from a script or a seeded coin.
type simClient struct {
	script    []domain.RoundResult
	winRate   float64
	maxRounds int
	rng       *rand.Rand
	played    int
}

var _ game.Client = (*simClient)(nil)

func newSimClient(script string, winRate float64, maxRounds int, rng *rand.Rand) *simClient {
	c := &simClient{winRate: winRate, maxRounds: maxRounds, rng: rng}
	for _, ch := range strings.ToUpper(script) {
		switch ch {
		case 'W':
			c.script = append(c.script, domain.ResultWin)
		case 'L':
			c.script = append(c.script, domain.ResultLoss)
		}
	}
	return c
}

func (c *simClient) Balance(ctx context.Context) (float64, error) { return 0, nil }

func (c *simClient) PlaceBet(ctx context.Context, amount float64) (*domain.RoundOutcome, error) {
	if c.played >= c.maxRounds {
		return nil, fmt.Errorf("round limit reached: %w", game.ErrCommandFailed)
	}

	var result domain.RoundResult
	switch {
	case len(c.script) > 0:
		result = c.script[c.played%len(c.script)]
	case c.rng.Float64() < c.winRate:
		result = domain.ResultWin
	default:
		result = domain.ResultLoss
	}
	c.played++

	out := &domain.RoundOutcome{Result: result, BetAmount: amount}
	if result == domain.ResultWin {
		out.BalanceDelta = amount
	} else {
		out.BalanceDelta = -amount
	}
	return out, nil
}

func (c *simClient) RecentMessages(n int) []string { return nil }
func (c *simClient) Close() error                  { return nil }
