package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/dispatch"
	"github.com/openoption/blitzws/internal/protocol"
)

// Conn is the slice of the transport a session needs. *transport.Client
// satisfies it; tests substitute fakes.
type Conn interface {
	Send(v any) error
	IsConnected() bool
}

// Config holds session tuning. Zero values fall back to defaults.
type Config struct {
	SSID              string
	AuthTimeout       time.Duration
	HeartbeatInterval time.Duration
	RequestTimeout    time.Duration
	RequestRetries    int
	RetryBackoff      time.Duration
}

// DefaultConfig returns the recommended timings.
func DefaultConfig(ssid string) Config {
	return Config{
		SSID:              ssid,
		AuthTimeout:       10 * time.Second,
		HeartbeatInterval: 20 * time.Second,
		RequestTimeout:    20 * time.Second,
		RequestRetries:    3,
		RetryBackoff:      500 * time.Millisecond,
	}
}

func (c *Config) applyDefaults() {
	if c.AuthTimeout == 0 {
		c.AuthTimeout = 10 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 20 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 20 * time.Second
	}
	if c.RequestRetries == 0 {
		c.RequestRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
}

// Session orchestrates the authenticated platform session.
type Session struct {
	conn   Conn
	d      *dispatch.Dispatcher
	cfg    Config
	logger *slog.Logger

	clock   Clock
	catalog *Catalog

	authed atomic.Bool

	balanceMu       sync.RWMutex
	activeBalanceID int64

	stateMu  sync.RWMutex
	profile  protocol.Profile
	features map[string]string
	settings map[string]json.RawMessage

	subs []*dispatch.Subscription

	// Reconnection handling is mutually exclusive with itself.
	reconnectMu sync.Mutex

	wg      sync.WaitGroup
	stopped chan struct{}
	started atomic.Bool
}

// New creates a session over an established connection and dispatcher.
func New(conn Conn, d *dispatch.Dispatcher, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Session{
		conn:     conn,
		d:        d,
		cfg:      cfg,
		logger:   logger,
		catalog:  NewCatalog(),
		features: make(map[string]string),
		settings: make(map[string]json.RawMessage),
		stopped:  make(chan struct{}),
	}
}

// Clock returns the server clock tracker; register its Observe method as
// the transport's message hook.
func (s *Session) Clock() *Clock { return &s.clock }

// Catalog returns the live asset catalog.
func (s *Session) Catalog() *Catalog { return s.catalog }

// Dispatcher exposes the dispatcher for higher-level components.
func (s *Session) Dispatcher() *dispatch.Dispatcher { return s.d }

// Start authenticates and brings the session to steady state: push
// listeners registered, initialization data requested, portfolio and
// instrument-category channels subscribed, heartbeat running.
func (s *Session) Start(ctx context.Context) error {
	s.registerListeners()

	if err := s.Authenticate(ctx); err != nil {
		return err
	}

	if err := s.requestInitData(); err != nil {
		s.logger.Warn("initialization-data request failed", "error", err)
	}
	if err := s.SubscribePortfolio(); err != nil {
		s.logger.Warn("portfolio subscribe failed", "error", err)
	}
	if err := s.SubscribeInstruments(); err != nil {
		s.logger.Warn("instrument subscribe failed", "error", err)
	}

	if s.started.CompareAndSwap(false, true) {
		s.wg.Add(1)
		go s.heartbeatLoop(ctx)
	}

	s.logger.Info("session started")
	return nil
}

// Close stops the heartbeat and removes the session's event listeners.
func (s *Session) Close() {
	if s.started.CompareAndSwap(true, false) {
		close(s.stopped)
		s.wg.Wait()
	}
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = nil
}

// Authenticated reports whether the handshake has completed on the
// current connection.
func (s *Session) Authenticated() bool { return s.authed.Load() }

// Authenticate performs the handshake. The server answers either via the
// request's own correlation id or via a separately named "authenticated"
// push; whichever arrives first wins and the other is cancelled.
func (s *Session) Authenticate(ctx context.Context) error {
	reqID := protocol.NewRequestID()
	pending := s.d.CreatePending(reqID)
	defer s.d.CancelPending(reqID)

	evCh := make(chan *protocol.Message, 1)
	sub := s.d.Subscribe(protocol.EvAuthenticated, func(msg *protocol.Message) {
		select {
		case evCh <- msg:
		default:
		}
	})
	defer sub.Cancel()

	req := protocol.Request{
		Name:      protocol.OpAuthenticate,
		RequestID: reqID,
		Msg:       map[string]any{"ssid": s.cfg.SSID, "protocol": 3},
	}
	if err := s.conn.Send(req); err != nil {
		return &AuthError{Reason: "send", Err: err}
	}

	timer := time.NewTimer(s.cfg.AuthTimeout)
	defer timer.Stop()

	var res *protocol.Message
	select {
	case res = <-pending:
	case res = <-evCh:
	case <-timer.C:
		return &AuthError{Reason: "timeout"}
	case <-ctx.Done():
		return &AuthError{Reason: "cancelled", Err: ctx.Err()}
	}

	if res.Name == protocol.EvError || res.MsgString() == "unauthenticated" {
		return &AuthError{Reason: fmt.Sprintf("rejected: %s", string(res.Msg))}
	}

	s.authed.Store(true)
	s.logger.Info("authenticated")
	return nil
}

// HandleDisconnect drops the authenticated flag the moment the transport
// loses its connection, so the heartbeat stays quiet from the drop
// through the redial until HandleReconnect completes the new handshake.
// Register this as the transport's disconnect hook.
func (s *Session) HandleDisconnect() {
	s.authed.Store(false)
	s.logger.Debug("connection lost, heartbeat suspended")
}

// HandleReconnect restores session state after the transport redialed:
// re-authenticate, re-request initialization data and re-subscribe. The
// heartbeat stays suppressed until authentication completes. Register
// this as the transport's reconnect hook.
func (s *Session) HandleReconnect() error {
	s.reconnectMu.Lock()
	defer s.reconnectMu.Unlock()

	s.authed.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AuthTimeout)
	defer cancel()

	if err := s.Authenticate(ctx); err != nil {
		return fmt.Errorf("reconnect auth: %w", err)
	}
	if err := s.requestInitData(); err != nil {
		s.logger.Warn("reconnect initialization-data failed", "error", err)
	}
	if err := s.SubscribePortfolio(); err != nil {
		s.logger.Warn("reconnect portfolio subscribe failed", "error", err)
	}
	if err := s.SubscribeInstruments(); err != nil {
		s.logger.Warn("reconnect instrument subscribe failed", "error", err)
	}

	s.logger.Info("session state restored after reconnect")
	return nil
}

// heartbeatLoop re-sends the ssid as a keep-alive every interval while
// connected and authenticated. Failures are logged, never fatal.
func (s *Session) heartbeatLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			if !s.conn.IsConnected() || !s.authed.Load() {
				continue
			}
			req := protocol.Request{
				Name:      protocol.OpSSID,
				RequestID: protocol.NewRequestID(),
				Msg:       s.cfg.SSID,
			}
			if err := s.conn.Send(req); err != nil {
				s.logger.Debug("heartbeat send failed", "error", err)
			}
		}
	}
}

// requestInitData asks for the full catalog snapshot. The response comes
// back as an initialization-data message handled by the catalog listener.
func (s *Session) requestInitData() error {
	req := protocol.NewSend(protocol.NewRequestID(), protocol.OpGetInitData, "4.0", map[string]any{})
	return s.conn.Send(req)
}

// SubscribePortfolio subscribes to order and position lifecycle pushes
// for blitz instruments. Idempotent server-side; re-run on reconnect.
func (s *Session) SubscribePortfolio() error {
	filters := map[string]any{"instrument_type": protocol.InstrumentTypeBlitz}

	order := protocol.NewSubscribe(protocol.NewSubID(), protocol.ChannelOrderChanged, "2.0", filters)
	if err := s.conn.Send(order); err != nil {
		return fmt.Errorf("subscribe order-changed: %w", err)
	}

	position := protocol.NewSubscribe(protocol.NewSubID(), protocol.ChannelPositionChanged, "3.0", filters)
	if err := s.conn.Send(position); err != nil {
		return fmt.Errorf("subscribe position-changed: %w", err)
	}

	s.logger.Debug("portfolio subscribed")
	return nil
}

// SubscribeInstruments subscribes to underlying-list-changed pushes for
// every instrument category so the catalog stays current.
func (s *Session) SubscribeInstruments() error {
	filters := map[string]any{"user_group_id": 1, "is_regulated": false}
	channels := []string{
		"digital-option-instruments.underlying-list-changed",
		"turbo-option-instruments.underlying-list-changed",
		"binary-option-instruments.underlying-list-changed",
		"blitz-option-instruments.underlying-list-changed",
	}

	for _, channel := range channels {
		req := protocol.NewSubscribe(protocol.NewSubID(), channel, "3.0", filters)
		if err := s.conn.Send(req); err != nil {
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
	}

	s.logger.Debug("instrument lists subscribed")
	return nil
}

// Send writes one frame through the underlying connection. Higher-level
// components that manage their own correlation (trade execution, stream
// subscriptions) use this instead of SendWithRetry.
func (s *Session) Send(v any) error {
	return s.conn.Send(v)
}

// Connected reports the transport's non-blocking connection predicate.
func (s *Session) Connected() bool {
	return s.conn.IsConnected()
}

// LookupAsset finds an asset by id across categories in priority order.
func (s *Session) LookupAsset(id string) (protocol.AssetRecord, bool) {
	return s.catalog.Lookup(id)
}

// IsAssetOpen reports whether the asset is enabled and not suspended.
func (s *Session) IsAssetOpen(id string) bool {
	return s.catalog.IsOpen(id)
}

// PayoutPercent resolves the payout for an asset.
func (s *Session) PayoutPercent(id string) int {
	return s.catalog.PayoutPercent(id)
}

// unmarshal is the package-wide payload decoder.
func unmarshal(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}

// categoryFromEventName maps an instrument channel name to its catalog
// category (e.g. "turbo-option-instruments.underlying-list-changed" ->
// "turbo").
func categoryFromEventName(name string) string {
	switch {
	case strings.Contains(name, "blitz-option"):
		return protocol.CategoryBlitz
	case strings.Contains(name, "turbo-option"):
		return protocol.CategoryTurbo
	case strings.Contains(name, "binary-option"):
		return protocol.CategoryBinary
	case strings.Contains(name, "digital-option"):
		return protocol.CategoryDigital
	default:
		return "unknown"
	}
}
