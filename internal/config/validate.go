package config

import (
	"errors"
	"strings"
)

// Validate checks that required fields are set and values are sane.
func (c *ClientConfig) Validate() error {
	if c.Platform.SSID == "" {
		return errors.New("platform.ssid is required (set BLITZWS_SSID)")
	}
	if !strings.HasPrefix(c.Platform.WSURL, "ws://") && !strings.HasPrefix(c.Platform.WSURL, "wss://") {
		return errors.New("platform.ws_url must be a ws:// or wss:// URL")
	}

	if c.Transport.BufferSize < 1 {
		return errors.New("transport.buffer_size must be >= 1")
	}
	if c.Transport.ReconnectBaseWait > c.Transport.ReconnectMaxWait {
		return errors.New("transport.reconnect_base_wait must not exceed reconnect_max_wait")
	}

	if c.Session.RequestRetries < 1 {
		return errors.New("session.request_retries must be >= 1")
	}

	if c.Candles.ChunkSize < 1 {
		return errors.New("candles.chunk_size must be >= 1")
	}

	return nil
}
