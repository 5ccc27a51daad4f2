package session

import (
	"fmt"
	"time"
)

// AuthError reports a failed or timed-out authentication handshake. It is
// fatal to Start; callers recover by invoking Start again.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TimeoutError reports that a correlated response never arrived within
// budget across every retry attempt.
type TimeoutError struct {
	Op       string
	Attempts int
	Budget   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %q timed out after %d attempts (%s each)", e.Op, e.Attempts, e.Budget)
}
