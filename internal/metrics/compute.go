// Package metrics computes session statistics from resolved rounds.
package metrics

import (
	"sort"
	"time"

	"coinflip-pilot/internal/domain"
)

// ComputeSummary calculates all session statistics from a session record and
// its rounds. Rounds are sorted by RoundIndex ASC before computing
// order-dependent metrics (drawdown, loss streak). FAILED rounds never reach
// storage, so every input round is a WIN or a LOSS.
func ComputeSummary(session *domain.SessionRecord, rounds []*domain.RoundRecord) *domain.SessionSummary {
	summary := &domain.SessionSummary{
		SessionID:       session.SessionID,
		StartingBalance: session.StartingBalance,
		FinalBalance:    session.FinalBalance,
		NetProfit:       session.FinalBalance - session.StartingBalance,
		StopReason:      session.StopReason,
		PeakBalance:     session.StartingBalance,
		TroughBalance:   session.StartingBalance,
	}
	if session.FinishedAt != nil {
		summary.Duration = session.FinishedAt.Sub(session.StartedAt)
	}

	if len(rounds) == 0 {
		return summary
	}

	sorted := make([]*domain.RoundRecord, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RoundIndex < sorted[j].RoundIndex
	})

	summary.TotalRounds = len(sorted)

	for _, r := range sorted {
		switch r.Result {
		case domain.ResultWin:
			summary.Wins++
		case domain.ResultLoss:
			summary.Losses++
		}

		delta := r.BalanceAfter - r.BalanceBefore
		if delta > summary.BiggestWin {
			summary.BiggestWin = delta
		}
		if delta < 0 && -delta > summary.BiggestLoss {
			summary.BiggestLoss = -delta
		}
	}

	summary.WinRatePct = float64(summary.Wins) / float64(summary.TotalRounds) * 100

	summary.PeakBalance, summary.TroughBalance = computePeakTrough(session.StartingBalance, sorted)
	summary.MaxDrawdownPct = computeMaxDrawdownPct(session.StartingBalance, sorted)
	summary.LongestLossStreak = computeLongestLossStreak(sorted)

	if summary.Duration == 0 && len(sorted) > 1 {
		first := sorted[0].TimestampMs
		last := sorted[len(sorted)-1].TimestampMs
		summary.Duration = time.Duration(last-first) * time.Millisecond
	}

	return summary
}

// computePeakTrough walks the balance curve including the starting balance.
func computePeakTrough(starting float64, rounds []*domain.RoundRecord) (peak, trough float64) {
	peak, trough = starting, starting
	for _, r := range rounds {
		if r.BalanceAfter > peak {
			peak = r.BalanceAfter
		}
		if r.BalanceAfter < trough {
			trough = r.BalanceAfter
		}
	}
	return peak, trough
}

// computeMaxDrawdownPct calculates the worst peak-to-trough balance drop as a
// percentage of the peak at the time.
func computeMaxDrawdownPct(starting float64, rounds []*domain.RoundRecord) float64 {
	peak := starting
	maxDrawdown := 0.0

	for _, r := range rounds {
		balance := r.BalanceAfter
		if balance > peak {
			peak = balance
			continue
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - balance) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// computeLongestLossStreak finds the longest run of consecutive losses.
func computeLongestLossStreak(rounds []*domain.RoundRecord) int {
	longest := 0
	current := 0

	for _, r := range rounds {
		if r.Result == domain.ResultLoss {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}

	return longest
}
