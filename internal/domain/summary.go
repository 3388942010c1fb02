package domain

import "time"

// SessionSummary aggregates the final statistics of a session, computed from
// its resolved rounds.
type SessionSummary struct {
	SessionID       string
	StartingBalance float64
	FinalBalance    float64
	NetProfit       float64

	TotalRounds int
	Wins        int
	Losses      int
	WinRatePct  float64

	PeakBalance       float64
	TroughBalance     float64
	MaxDrawdownPct    float64 // worst peak-to-trough drop, percent of peak
	LongestLossStreak int
	BiggestWin        float64
	BiggestLoss       float64 // absolute value of the largest single loss

	Duration   time.Duration
	StopReason string
}
