// internal/agentapi/errors.go
package agentapi

import (
	"fmt"
	"time"
)

// ServiceError is a non-success HTTP response from the agent service. The
// core never retries these automatically; retries, if desired, belong to
// the caller.
type ServiceError struct {
	// Op is the failing operation, "create_session" or "get_session".
	Op         string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("agent service %s failed: %d - %s", e.Op, e.StatusCode, e.Body)
}

// TimeoutError reports that a session did not reach a terminal status
// within the wait deadline. It is distinct from ServiceError because the
// service may still complete the session later; the local wait gave up,
// nothing was cancelled remotely.
type TimeoutError struct {
	SessionID string
	MaxWait   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session %s did not complete within %s", e.SessionID, e.MaxWait)
}
