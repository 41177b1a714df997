package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/metrics"
)

// ErrConnectionLost is returned by Run once the retry ceiling is reached.
var ErrConnectionLost = errors.New("push channel: connection lost")

// Listener receives frames and state changes from a Channel.
type Listener interface {
	// HandleFrame is called for every text frame. A returned error is
	// logged and the frame dropped; the connection stays up.
	HandleFrame(data []byte) error
	// ConnectionChanged is called after every state transition.
	ConnectionChanged(State)
}

// Options 推送通道的连接参数
type Options struct {
	URL              string
	Policy           Policy
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
}

// DefaultOptions returns the connection defaults for url.
func DefaultOptions(url string) Options {
	return Options{
		URL:              url,
		Policy:           DefaultPolicy(),
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
	}
}

// Channel keeps a WebSocket subscription to the question feed alive,
// reconnecting according to its Policy.
type Channel struct {
	opts     Options
	listener Listener
	dialer   *websocket.Dialer
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewChannel creates a channel. m may be nil.
func NewChannel(opts Options, listener Listener, m *metrics.Metrics) *Channel {
	defaults := DefaultOptions(opts.URL)
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaults.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}

	return &Channel{
		opts:     opts,
		listener: listener,
		dialer:   &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		metrics:  m,
		log:      logger.Component("push"),
		state:    State{Phase: PhaseConnecting},
	}
}

// State returns the current machine state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run connects and reads until ctx is cancelled (returns nil) or the retry
// ceiling is reached (returns ErrConnectionLost). Cancelling ctx closes the
// socket immediately and abandons any pending backoff.
func (c *Channel) Run(ctx context.Context) error {
	c.publish(c.State())

	for {
		err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			c.apply(EventTeardown)
			return nil
		}

		c.log.Warn().Err(err).Str("url", c.opts.URL).Msg("push connection closed unexpectedly")
		eff := c.apply(EventUnexpectedClose)

		switch eff.Kind {
		case EffectReportLost:
			c.log.Error().Int("retries", c.State().Retries).Msg("push channel giving up")
			return ErrConnectionLost
		case EffectReconnect:
			if c.metrics != nil {
				c.metrics.Reconnects.Inc()
			}
			c.log.Info().Dur("delay", eff.Delay).Int("attempt", c.State().Retries).Msg("scheduling reconnect")
			timer := time.NewTimer(eff.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				c.apply(EventTeardown)
				return nil
			case <-timer.C:
			}
		default:
			return nil
		}
	}
}

func (c *Channel) apply(e Event) Effect {
	c.mu.Lock()
	next, eff := Transition(c.state, e, c.opts.Policy)
	changed := next != c.state
	c.state = next
	c.mu.Unlock()

	if changed {
		c.publish(next)
	}
	return eff
}

func (c *Channel) publish(s State) {
	if c.metrics != nil {
		c.metrics.SetPhase(s.Phase.String(), Phases())
	}
	if c.listener != nil {
		c.listener.ConnectionChanged(s)
	}
}

// connectAndRead dials once and reads frames until the connection ends.
func (c *Channel) connectAndRead(ctx context.Context) error {
	connID := uuid.NewString()
	header := http.Header{}
	header.Set("X-Connection-ID", connID)

	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	log := c.log.With().Str("conn_id", connID).Logger()
	log.Info().Str("url", c.opts.URL).Msg("push connection open")
	c.apply(EventOpened)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the socket is the only way to unblock ReadMessage on teardown.
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		return nil
	})

	go c.pingLoop(connCtx, conn)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if c.listener == nil {
			continue
		}
		if err := c.listener.HandleFrame(data); err != nil {
			if c.metrics != nil {
				c.metrics.PushDecodeErrors.Inc()
			}
			log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping unreadable push frame")
		}
	}
}

// pingLoop 定期发送ping消息
// WriteControl may be called concurrently with other writes.
func (c *Channel) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout)); err != nil {
				conn.Close()
				return
			}
		}
	}
}
