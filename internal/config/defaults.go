package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL             = "wss://iqoption.com/echo/websocket"
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultBufferSize        = 1000
	DefaultReconnectBaseWait = 1 * time.Second
	DefaultReconnectMaxWait  = 30 * time.Second
	DefaultAuthTimeout       = 10 * time.Second
	DefaultHeartbeatInterval = 20 * time.Second
	DefaultRequestTimeout    = 20 * time.Second
	DefaultRequestRetries    = 3
	DefaultRetryBackoff      = 500 * time.Millisecond
	DefaultAckTimeout        = 10 * time.Second
	DefaultMinSettleWait     = 60 * time.Second
	DefaultSettleGrace       = 30 * time.Second
	DefaultCandleChunkSize   = 1000
)

func (c *ClientConfig) applyDefaults() {
	if c.Platform.WSURL == "" {
		c.Platform.WSURL = DefaultWSURL
	}

	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.BufferSize == 0 {
		c.Transport.BufferSize = DefaultBufferSize
	}
	if c.Transport.ReconnectBaseWait == 0 {
		c.Transport.ReconnectBaseWait = DefaultReconnectBaseWait
	}
	if c.Transport.ReconnectMaxWait == 0 {
		c.Transport.ReconnectMaxWait = DefaultReconnectMaxWait
	}

	if c.Session.AuthTimeout == 0 {
		c.Session.AuthTimeout = DefaultAuthTimeout
	}
	if c.Session.HeartbeatInterval == 0 {
		c.Session.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Session.RequestTimeout == 0 {
		c.Session.RequestTimeout = DefaultRequestTimeout
	}
	if c.Session.RequestRetries == 0 {
		c.Session.RequestRetries = DefaultRequestRetries
	}
	if c.Session.RetryBackoff == 0 {
		c.Session.RetryBackoff = DefaultRetryBackoff
	}

	if c.Trade.AckTimeout == 0 {
		c.Trade.AckTimeout = DefaultAckTimeout
	}
	if c.Trade.MinSettleWait == 0 {
		c.Trade.MinSettleWait = DefaultMinSettleWait
	}
	if c.Trade.SettleGrace == 0 {
		c.Trade.SettleGrace = DefaultSettleGrace
	}

	if c.Candles.ChunkSize == 0 {
		c.Candles.ChunkSize = DefaultCandleChunkSize
	}
}
