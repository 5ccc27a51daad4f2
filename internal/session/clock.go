package session

import (
	"sync/atomic"
	"time"

	"github.com/openoption/blitzws/internal/protocol"
)

// Clock tracks the server/local clock offset from timeSync pushes. It is
// fed by the transport's passive message hook, not the dispatcher, so the
// offset stays fresh even while no handler cares about timeSync events.
type Clock struct {
	// offset = serverTime - localTime, in milliseconds.
	offsetMs atomic.Int64
	synced   atomic.Bool
}

// Observe inspects one raw inbound frame and updates the offset when the
// frame is a timeSync push. Anything else is ignored cheaply.
func (c *Clock) Observe(data []byte) {
	msg, err := protocol.DecodeMessage(data)
	if err != nil || msg.Name != protocol.EvTimeSync {
		return
	}

	var serverMs int64
	if err := unmarshal(msg.Msg, &serverMs); err != nil {
		return
	}

	localMs := time.Now().UnixMilli()
	c.offsetMs.Store(serverMs - localMs)
	c.synced.Store(true)
}

// Now returns the current server time.
func (c *Clock) Now() time.Time {
	return time.Now().Add(time.Duration(c.offsetMs.Load()) * time.Millisecond)
}

// Timestamp returns the current server time as a unix timestamp in
// seconds, the unit every request body uses.
func (c *Clock) Timestamp() int64 {
	return c.Now().Unix()
}

// Synced reports whether at least one timeSync push has been observed.
func (c *Clock) Synced() bool {
	return c.synced.Load()
}
