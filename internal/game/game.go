// Package game defines the boundary to the chat coinflip game.
package game

import (
	"context"
	"errors"

	"coinflip-pilot/internal/domain"
)

// Errors reported by game clients.
var (
	// ErrCommandFailed means a command could not be delivered to the game.
	ErrCommandFailed = errors.New("command send failed")

	// ErrNoResult means a command was delivered but no parseable response
	// arrived within the result timeout.
	ErrNoResult = errors.New("no result observed for command")
)

// Client is the boundary contract with the game. It executes the engine's
// decisions and reports outcomes; it has no decision authority.
type Client interface {
	// Balance requests the current balance from the game and parses the
	// response. Used at session start and as a resync point.
	Balance(ctx context.Context) (float64, error)

	// PlaceBet wagers the amount and waits for the round to resolve.
	// A delivery or parse failure yields a FAILED outcome, never a
	// fabricated WIN or LOSS.
	PlaceBet(ctx context.Context, amount float64) (*domain.RoundOutcome, error)

	// RecentMessages returns up to n most recent chat messages, newest
	// first. Used by the verification monitor.
	RecentMessages(n int) []string

	// Close tears down the connection.
	Close() error
}
