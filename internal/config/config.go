package config

import "time"

// ClientConfig is the root configuration for one platform client.
type ClientConfig struct {
	Platform  PlatformConfig  `yaml:"platform"`
	Transport TransportConfig `yaml:"transport"`
	Session   SessionConfig   `yaml:"session"`
	Trade     TradeConfig     `yaml:"trade"`
	Candles   CandlesConfig   `yaml:"candles"`
}

// PlatformConfig identifies the platform endpoint and credentials.
type PlatformConfig struct {
	WSURL string `yaml:"ws_url"`
	// SSID is the opaque session identifier obtained out-of-band; use
	// ${BLITZWS_SSID} in the file and set it in the environment.
	SSID string `yaml:"ssid"`
}

// TransportConfig holds socket and reconnection settings.
type TransportConfig struct {
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	BufferSize        int           `yaml:"buffer_size"`
	ReconnectBaseWait time.Duration `yaml:"reconnect_base_wait"`
	ReconnectMaxWait  time.Duration `yaml:"reconnect_max_wait"`
}

// SessionConfig holds orchestrator timings.
type SessionConfig struct {
	AuthTimeout       time.Duration `yaml:"auth_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestRetries    int           `yaml:"request_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
}

// TradeConfig holds trade-execution timings.
type TradeConfig struct {
	AckTimeout    time.Duration `yaml:"ack_timeout"`
	MinSettleWait time.Duration `yaml:"min_settle_wait"`
	SettleGrace   time.Duration `yaml:"settle_grace"`
}

// CandlesConfig holds history pagination settings.
type CandlesConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}
