package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Client is the single persistent WebSocket connection to the platform.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closed    bool

	// Write serialization
	writeMu sync.Mutex

	messages chan RawMessage
	done     chan struct{}

	onReconnect  ReconnectHook
	onDisconnect DisconnectHook
	onMessage    MessageHook

	// Reconnection is mutually exclusive with itself.
	reconnectMu sync.Mutex
}

// NewClient creates a transport client. Hooks must be registered before
// Connect.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}

	return &Client{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan RawMessage, cfg.BufferSize),
		done:     make(chan struct{}),
	}
}

// OnReconnect registers the post-reconnect hook.
func (c *Client) OnReconnect(hook ReconnectHook) { c.onReconnect = hook }

// OnDisconnect registers the connection-loss hook.
func (c *Client) OnDisconnect(hook DisconnectHook) { c.onDisconnect = hook }

// OnMessage registers the passive inbound observation hook.
func (c *Client) OnMessage(hook MessageHook) { c.onMessage = hook }

// Connect establishes the socket and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	if !c.install(conn) {
		return ErrAlreadyClosed
	}
	go c.readLoop(conn)

	c.logger.Debug("websocket connected", "url", c.cfg.URL)
	return nil
}

// Close shuts the client down. Idempotent; stops any reconnection attempt.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// Send marshals v and writes it as one text frame. Fails with
// ErrNotConnected while the socket is down; callers are expected to check
// IsConnected or tolerate the error during reconnection windows.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// IsConnected returns the current connection state without blocking.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Messages returns the inbound frame channel. The session pump is the
// single consumer.
func (c *Client) Messages() <-chan RawMessage {
	return c.messages
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	return conn, err
}

// install replaces the connection object. The previous conn, if any, is
// abandoned to its read loop's error path. A dial that lands after Close
// is rejected and its conn torn down, so a racing Close always wins.
func (c *Client) install(conn *websocket.Conn) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return false
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	return true
}

// readLoop delivers frames from one connection until it fails or the
// client closes. gorilla's ReadMessage returns whole messages only, so no
// partial frame ever reaches the channel.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()

			c.logger.Warn("websocket read failed", "error", err)
			if c.onDisconnect != nil {
				c.onDisconnect()
			}
			go c.reconnectLoop()
			return
		}

		if c.onMessage != nil {
			c.onMessage(data)
		}

		select {
		case c.messages <- RawMessage{Data: data, ReceivedAt: receivedAt}:
		case <-c.done:
			return
		default:
			c.logger.Warn("inbound buffer full, dropping frame")
		}
	}
}

// reconnectLoop redials until it succeeds or the client closes. Delay
// grows exponentially up to ReconnectMaxWait; attempts are unbounded.
func (c *Client) reconnectLoop() {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	// A concurrent attempt may have already restored the connection.
	if c.IsConnected() {
		return
	}

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = c.cfg.ReconnectBaseWait
	boff.MaxInterval = c.cfg.ReconnectMaxWait

	for attempt := 1; ; attempt++ {
		wait := boff.NextBackOff()
		if wait == backoff.Stop {
			wait = c.cfg.ReconnectMaxWait
		}

		select {
		case <-c.done:
			return
		case <-time.After(wait):
		}

		c.logger.Info("attempting reconnection", "attempt", attempt)

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("reconnection failed", "attempt", attempt, "error", err)
			continue
		}

		if !c.install(conn) {
			return
		}
		go c.readLoop(conn)

		// The hook re-authenticates and re-subscribes over the new
		// socket, so the read loop must already be live. It is awaited
		// to completion here; the session keeps its heartbeat suppressed
		// until the hook finishes.
		if c.onReconnect != nil {
			if err := c.onReconnect(); err != nil {
				c.logger.Error("reconnect hook failed", "error", err)
			}
		}

		c.logger.Info("reconnected", "attempt", attempt)
		return
	}
}
