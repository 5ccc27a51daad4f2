package trade

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openoption/blitzws/internal/protocol"
)

// State is an order's position in its lifecycle.
type State string

const (
	StateSubmitted    State = "submitted"
	StateAcknowledged State = "acknowledged"
	StateMonitoring   State = "monitoring"
	StateSettled      State = "settled"
	StateTimedOut     State = "timed_out"
	StateRejected     State = "rejected"
)

// ErrNoBalance is returned when no balance has been selected yet.
var ErrNoBalance = errors.New("no balance selected")

// Kind classifies a trade failure so callers can react differently to an
// unavailable asset than to a generic rejection.
type Kind int

const (
	// KindRejected is a generic server-side rejection.
	KindRejected Kind = iota
	// KindAssetUnavailable means the asset is suspended or closed for
	// trading; callers may want to exclude it from future selection.
	KindAssetUnavailable
)

// Error is a surfaced trade failure carrying the server's text verbatim.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Kind == KindAssetUnavailable {
		return fmt.Sprintf("asset unavailable: %s", e.Message)
	}
	return fmt.Sprintf("order rejected: %s", e.Message)
}

// classify maps server error text onto a failure kind. The platform has
// no structured code for a suspended instrument; the text is all there is.
func classify(message string) *Error {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "suspended") || strings.Contains(lower, "closed") {
		return &Error{Kind: KindAssetUnavailable, Message: message}
	}
	return &Error{Kind: KindRejected, Message: message}
}

// Order is one trade request.
type Order struct {
	ActiveID  int64
	Direction string // "call" or "put"
	Amount    decimal.Decimal
	Duration  int // seconds
}

// Result is the terminal outcome of one Execute call.
type Result struct {
	State   State
	OrderID protocol.FlexID
	Outcome string // "win", "loose", "equal" or "timeout"
	Profit  decimal.Decimal
}

// Config holds execution tuning. Zero values fall back to defaults.
type Config struct {
	AckTimeout    time.Duration // acknowledgment wait (default 10s)
	MinSettleWait time.Duration // settlement wait floor (default 60s)
	SettleGrace   time.Duration // margin past expiry (default 30s)
}

func (c *Config) applyDefaults() {
	if c.AckTimeout == 0 {
		c.AckTimeout = 10 * time.Second
	}
	if c.MinSettleWait == 0 {
		c.MinSettleWait = 60 * time.Second
	}
	if c.SettleGrace == 0 {
		c.SettleGrace = 30 * time.Second
	}
}
