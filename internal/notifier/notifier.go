// Package notifier delivers engine events to observers: a structured log, an
// in-memory sink for tests, or several sinks at once. Observers never gain
// decision authority.
package notifier

import (
	"sync"

	"github.com/rs/zerolog"

	"coinflip-pilot/internal/domain"
)

// Notifier receives every engine event exactly once.
type Notifier interface {
	Publish(ev domain.Event)
}

// LogNotifier writes events to a zerolog logger.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Publish logs one event with structured fields.
func (n *LogNotifier) Publish(ev domain.Event) {
	e := n.log.Info()
	switch ev.Type {
	case domain.EventStopped:
		e = n.log.Warn().
			Str("reason", ev.Reason).
			Int("rounds", ev.TotalRounds).
			Int("wins", ev.TotalWins).
			Int("losses", ev.TotalLosses)
	case domain.EventPaused:
		e = n.log.Warn().Str("reason", ev.Reason)
	case domain.EventBetRequested:
		e = e.Float64("amount", ev.Amount)
	case domain.EventRoundResolved:
		e = e.Str("result", string(ev.Result)).
			Float64("amount", ev.Amount).
			Int("loss_streak", ev.ConsecutiveLosses)
	}
	e.Str("session_id", ev.SessionID).
		Float64("balance", ev.Balance).
		Msg(string(ev.Type))
}

// Memory retains published events for inspection in tests.
type Memory struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewMemory creates an in-memory notifier.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish appends the event.
func (m *Memory) Publish(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

// Publish delivers the event to every notifier.
func (m Multi) Publish(ev domain.Event) {
	for _, n := range m {
		n.Publish(ev)
	}
}
