package protocol

import "github.com/google/uuid"

// NewRequestID returns a fresh correlation id for a request. UUIDs make
// the id generator's no-reuse invariant hold without bookkeeping.
func NewRequestID() string {
	return uuid.NewString()
}

// NewSubID returns a request id for a subscribeMessage frame. The prefix
// keeps subscription traffic distinguishable in protocol logs.
func NewSubID() string {
	return "s_" + uuid.NewString()
}

// NewClientID identifies this client instance in settings pushes.
func NewClientID() string {
	return uuid.NewString()
}
