// Package verification watches the chat stream for human-verification
// challenges and requests a session pause when one appears. It never resumes
// a session; that decision stays with the operator.
package verification

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/game/chat"
)

// messageWindow is how many recent messages each sweep inspects.
const messageWindow = 15

// MessageSource supplies recent chat messages, newest first.
type MessageSource interface {
	RecentMessages(n int) []string
}

// PauseRequester accepts a pause request. Implemented by the session runner.
type PauseRequester interface {
	RequestPause(reason string)
}

// Monitor polls recent chat messages for verification challenges.
type Monitor struct {
	source   MessageSource
	target   PauseRequester
	interval time.Duration
	log      zerolog.Logger

	detected atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a monitor. It does not start polling until Start.
func New(source MessageSource, target PauseRequester, interval time.Duration, log zerolog.Logger) *Monitor {
	return &Monitor{
		source:   source,
		target:   target,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop halts polling and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

// Detected reports whether a challenge has been seen since the last Reset.
func (m *Monitor) Detected() bool {
	return m.detected.Load()
}

// Reset clears the detection latch after the operator resolves the
// challenge and resumes the session.
func (m *Monitor) Reset() {
	m.detected.Store(false)
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep scans the recent messages once and latches on the first challenge.
func (m *Monitor) sweep() {
	if m.detected.Load() {
		return
	}
	for _, msg := range m.source.RecentMessages(messageWindow) {
		if chat.IsVerificationChallenge(msg) {
			m.detected.Store(true)
			m.log.Warn().Str("message", msg).Msg("verification challenge detected")
			m.target.RequestPause(domain.PauseReasonVerification)
			return
		}
	}
}
