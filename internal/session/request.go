package session

import (
	"context"
	"fmt"
	"time"

	"github.com/openoption/blitzws/internal/protocol"
)

// SendWithRetry sends an operation wrapped in a sendMessage envelope and
// awaits the correlated response. Each attempt uses a fresh correlation
// id; a timed-out attempt cancels its own pending handle before retrying
// so a late response cannot reach a stale waiter. Timeouts surface as
// *TimeoutError after the attempt budget is spent; send failures are
// retried after a short backoff until the last attempt.
func (s *Session) SendWithRetry(ctx context.Context, op, version string, body any, timeout time.Duration, attempts int) (*protocol.Message, error) {
	if timeout <= 0 {
		timeout = s.cfg.RequestTimeout
	}
	if attempts <= 0 {
		attempts = s.cfg.RequestRetries
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		reqID := protocol.NewRequestID()
		pending := s.d.CreatePending(reqID)

		if err := s.conn.Send(protocol.NewSend(reqID, op, version, body)); err != nil {
			s.d.CancelPending(reqID)
			if attempt == attempts {
				return nil, fmt.Errorf("send %s: %w", op, err)
			}
			s.logger.Warn("request send failed", "op", op, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
			}
			continue
		}

		timer := time.NewTimer(timeout)
		select {
		case msg := <-pending:
			timer.Stop()
			return msg, nil
		case <-timer.C:
			s.d.CancelPending(reqID)
			s.logger.Warn("request timed out", "op", op, "attempt", attempt)
		case <-ctx.Done():
			timer.Stop()
			s.d.CancelPending(reqID)
			return nil, ctx.Err()
		}
	}

	return nil, &TimeoutError{Op: op, Attempts: attempts, Budget: timeout}
}

// Request sends with the session's default timeout and retry budget.
func (s *Session) Request(ctx context.Context, op, version string, body any) (*protocol.Message, error) {
	return s.SendWithRetry(ctx, op, version, body, s.cfg.RequestTimeout, s.cfg.RequestRetries)
}
