package session

import (
	"context"
	"log/slog"

	"github.com/openoption/blitzws/internal/dispatch"
	"github.com/openoption/blitzws/internal/protocol"
	"github.com/openoption/blitzws/internal/transport"
)

// RunPump is the single inbound-message processing path: it consumes raw
// frames from the transport, decodes them and hands them to the
// dispatcher. Malformed frames are logged and dropped; they must never
// take the dispatch path down. Blocks until the context is cancelled or
// the frame channel closes.
func RunPump(ctx context.Context, frames <-chan transport.RawMessage, d *dispatch.Dispatcher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			msg, err := protocol.DecodeMessage(frame.Data)
			if err != nil {
				logger.Warn("dropping malformed frame", "error", err)
				continue
			}
			d.Dispatch(msg)
		}
	}
}
