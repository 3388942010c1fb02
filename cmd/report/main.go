// Package main renders session reports from stored history: one session in
// detail, or a table of the most recent ones.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/metrics"
	"coinflip-pilot/internal/storage"
	"coinflip-pilot/internal/storage/migrations"
	pgstore "coinflip-pilot/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	sessionID := flag.String("session", "", "Report a single session by ID")
	recent := flag.Int("recent", 10, "How many recent sessions to list")
	jsonOut := flag.Bool("json", false, "Print as JSON instead of markdown")
	flag.Parse()

	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
		os.Exit(1)
	}

	sessions := pgstore.NewSessionStore(pool)
	rounds := pgstore.NewRoundStore(pool)

	if *sessionID != "" {
		if err := reportOne(ctx, sessions, rounds, *sessionID, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := reportRecent(ctx, sessions, rounds, *recent, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// reportOne renders a full summary of a single session.
func reportOne(ctx context.Context, sessions storage.SessionStore, rounds storage.RoundStore, id string, jsonOut bool) error {
	rec, err := sessions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}
	rr, err := rounds.GetBySessionID(ctx, id)
	if err != nil {
		return fmt.Errorf("load rounds: %w", err)
	}

	summary := metrics.ComputeSummary(rec, rr)
	if jsonOut {
		return printJSON(summary)
	}

	fmt.Printf("# Session %s\n\n", summary.SessionID)
	fmt.Printf("- Started: %s\n", rec.StartedAt.Format(time.RFC3339))
	if rec.FinishedAt != nil {
		fmt.Printf("- Finished: %s (%s)\n", rec.FinishedAt.Format(time.RFC3339), summary.Duration.Round(time.Second))
	}
	fmt.Printf("- Status: %s", rec.Status)
	if rec.StopReason != "" {
		fmt.Printf(" (%s)", rec.StopReason)
	}
	fmt.Println()
	fmt.Printf("- Balance: %.0f -> %.0f (%+.0f)\n", summary.StartingBalance, summary.FinalBalance, summary.NetProfit)
	fmt.Printf("- Rounds: %d (%d W / %d L, %.1f%% win rate)\n", summary.TotalRounds, summary.Wins, summary.Losses, summary.WinRatePct)
	fmt.Printf("- Peak / trough: %.0f / %.0f, max drawdown %.1f%%\n", summary.PeakBalance, summary.TroughBalance, summary.MaxDrawdownPct)
	fmt.Printf("- Longest loss run: %d\n", summary.LongestLossStreak)
	fmt.Printf("- Biggest win / loss: %+.0f / -%.0f\n\n", summary.BiggestWin, summary.BiggestLoss)

	if len(rr) == 0 {
		return nil
	}

	fmt.Println("| # | Bet | Result | Balance | Streak |")
	fmt.Println("|---|-----|--------|---------|--------|")
	for _, r := range rr {
		fmt.Printf("| %d | %.0f | %s | %.0f | %d |\n",
			r.RoundIndex, r.BetAmount, r.Result, r.BalanceAfter, r.ConsecutiveLosses)
	}
	return nil
}

// reportRecent renders a one-line-per-session table of recent sessions.
func reportRecent(ctx context.Context, sessions storage.SessionStore, rounds storage.RoundStore, limit int, jsonOut bool) error {
	recs, err := sessions.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	var summaries []*domain.SessionSummary
	for _, rec := range recs {
		rr, err := rounds.GetBySessionID(ctx, rec.SessionID)
		if err != nil {
			return fmt.Errorf("load rounds for %s: %w", rec.SessionID, err)
		}
		summaries = append(summaries, metrics.ComputeSummary(rec, rr))
	}

	if jsonOut {
		return printJSON(summaries)
	}

	fmt.Printf("# Recent Sessions (%d)\n\n", len(summaries))
	fmt.Println("| Session | Stop Reason | Rounds | Win % | Net Profit | Max DD % |")
	fmt.Println("|---------|-------------|--------|-------|------------|----------|")
	for _, s := range summaries {
		fmt.Printf("| %s | %s | %d | %.1f | %+.0f | %.1f |\n",
			shortID(s.SessionID), s.StopReason, s.TotalRounds, s.WinRatePct, s.NetProfit, s.MaxDrawdownPct)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
