// Package chat implements the game client over a chat-gateway websocket.
// Commands are chat messages; outcomes are parsed from the reply stream.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"coinflip-pilot/internal/domain"
	"coinflip-pilot/internal/game"
	"coinflip-pilot/internal/observability"
)

// Command strings understood by the game.
const (
	cmdBalance  = "w cash"
	cmdCoinflip = "w cf %d"
)

// recentBufferSize bounds the ring of retained chat messages.
const recentBufferSize = 50

// ClientConfig configures chat client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// ResultTimeout bounds the wait for a command's reply.
	ResultTimeout time.Duration
}

// DefaultConfig returns default chat client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
		ResultTimeout:     15 * time.Second,
	}
}

// wireMessage is the gateway frame for one chat message.
type wireMessage struct {
	Channel string `json:"channel"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content"`
}

// Client implements game.Client over a chat-gateway websocket.
type Client struct {
	endpoint string
	channel  string
	config   ClientConfig
	log      zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// recent is a ring of the latest chat messages, newest last.
	recent   []string
	recentMu sync.RWMutex

	// waiters receive every incoming message while registered.
	waiters   map[int]chan string
	waiterSeq int
	waitersMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// Compile-time interface check.
var _ game.Client = (*Client)(nil)

// Dial connects to the chat gateway and starts the reader.
func Dial(ctx context.Context, endpoint, channel string, config *ClientConfig, log zerolog.Logger) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint: endpoint,
		channel:  channel,
		config:   cfg,
		log:      log,
		waiters:  make(map[int]chan string),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// connect establishes the websocket connection.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// readLoop consumes gateway frames until shutdown, reconnecting on error.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.Warn().Err(err).Msg("gateway read failed, reconnecting")
			if !c.reconnect() {
				return
			}
			continue
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug().Err(err).Msg("skipping unparseable gateway frame")
			continue
		}
		if msg.Channel != "" && msg.Channel != c.channel {
			continue
		}
		c.deliver(msg.Content)
	}
}

// deliver appends a message to the ring and fans it out to waiters.
func (c *Client) deliver(content string) {
	c.recentMu.Lock()
	c.recent = append(c.recent, content)
	if len(c.recent) > recentBufferSize {
		c.recent = c.recent[len(c.recent)-recentBufferSize:]
	}
	c.recentMu.Unlock()

	c.waitersMu.Lock()
	for _, ch := range c.waiters {
		select {
		case ch <- content:
		default:
			// Waiter fell behind; it still has the recent ring.
		}
	}
	c.waitersMu.Unlock()
}

// reconnect retries the connection with exponential backoff.
// Returns false when the client is shut down first.
func (c *Client) reconnect() bool {
	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		if err := c.connect(context.Background()); err != nil {
			c.log.Warn().Err(err).Dur("retry_in", delay).Msg("gateway reconnect failed")
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			continue
		}
		observability.RecordReconnect()
		c.log.Info().Msg("gateway reconnected")
		return true
	}
}

// pingLoop keeps the connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
			c.connMu.Unlock()
			if err != nil && !c.closed.Load() {
				c.log.Debug().Err(err).Msg("ping failed")
			}
		}
	}
}

// send delivers one chat command to the game.
func (c *Client) send(content string) error {
	if c.closed.Load() {
		return game.ErrCommandFailed
	}

	frame, err := json.Marshal(wireMessage{Channel: c.channel, Content: content})
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: %v", game.ErrCommandFailed, err)
	}
	return nil
}

// subscribe registers a waiter for incoming messages. The returned cancel
// must be called.
func (c *Client) subscribe() (<-chan string, func()) {
	ch := make(chan string, 16)

	c.waitersMu.Lock()
	c.waiterSeq++
	id := c.waiterSeq
	c.waiters[id] = ch
	c.waitersMu.Unlock()

	return ch, func() {
		c.waitersMu.Lock()
		delete(c.waiters, id)
		c.waitersMu.Unlock()
	}
}

// Balance requests the current balance and parses the reply.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	msgs, cancel := c.subscribe()
	defer cancel()

	if err := c.send(cmdBalance); err != nil {
		return 0, err
	}

	timeout := time.NewTimer(c.config.ResultTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timeout.C:
			return 0, game.ErrNoResult
		case msg := <-msgs:
			if v, ok := ParseBalance(msg); ok {
				return v, nil
			}
		}
	}
}

// PlaceBet wagers the amount and waits for the round to resolve. A timeout
// yields a FAILED outcome; delivery failure is reported as an error.
func (c *Client) PlaceBet(ctx context.Context, amount float64) (*domain.RoundOutcome, error) {
	msgs, cancel := c.subscribe()
	defer cancel()

	if err := c.send(fmt.Sprintf(cmdCoinflip, int64(amount))); err != nil {
		return nil, err
	}
	sent := time.Now()

	timeout := time.NewTimer(c.config.ResultTimeout)
	defer timeout.Stop()

	failed := &domain.RoundOutcome{Result: domain.ResultFailed, BetAmount: amount}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			observability.RecordResultTimeout()
			return failed, nil
		case msg := <-msgs:
			if IsPending(msg) {
				// Wager accepted; extend the wait for the spin to land.
				timeout.Reset(c.config.ResultTimeout)
				continue
			}
			if out, ok := ParseOutcome(msg, amount); ok {
				observability.RecordResultLatency(time.Since(sent).Seconds())
				return out, nil
			}
		}
	}
}

// RecentMessages returns up to n most recent chat messages, newest first.
func (c *Client) RecentMessages(n int) []string {
	c.recentMu.RLock()
	defer c.recentMu.RUnlock()

	if n > len(c.recent) {
		n = len(c.recent)
	}
	out := make([]string, 0, n)
	for i := len(c.recent) - 1; i >= len(c.recent)-n; i-- {
		out = append(out, c.recent[i])
	}
	return out
}

// Close tears down the connection and stops the background loops.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	err := c.conn.Close()
	c.connMu.Unlock()

	c.wg.Wait()
	return err
}
