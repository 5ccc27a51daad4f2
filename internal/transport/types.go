package transport

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// RawMessage is one inbound frame with its receive timestamp.
type RawMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ReconnectHook runs after each successful automatic reconnection, before
// inbound delivery resumes.
type ReconnectHook func() error

// DisconnectHook runs as soon as the connection is marked down, before
// any reconnection attempt starts.
type DisconnectHook func()

// MessageHook passively observes every inbound frame, independent of the
// dispatch path. It must not block; the read loop calls it inline.
type MessageHook func(data []byte)

// Config configures a transport Client.
type Config struct {
	URL               string
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	BufferSize        int           // inbound channel capacity
	ReconnectBaseWait time.Duration // first backoff delay
	ReconnectMaxWait  time.Duration // backoff cap; retries are unbounded
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1000,
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  30 * time.Second,
	}
}
