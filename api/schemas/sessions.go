package schemas

import (
	"time"
)

// -- Agent Session Schemas --

// SessionStatus is the status token reported by the agent service. The set
// of non-terminal values is owned by the service and changes between
// versions; anything not in the terminal set is treated as still running.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusStopped   SessionStatus = "stopped"
	StatusBlocked   SessionStatus = "blocked"
	StatusSuspended SessionStatus = "suspended"
	StatusUnknown   SessionStatus = "unknown"
)

// Terminal reports whether this status ends the polling loop. The four
// terminal values are treated as equivalent for waiting purposes.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusStopped, StatusBlocked, StatusSuspended:
		return true
	}
	return false
}

// Session represents one request/response round trip with the agent
// service. A Session is replaced wholesale on each status poll, never
// partially mutated, and is discarded once its payload has been
// normalized.
type Session struct {
	ID        string        `json:"session_id"`
	URL       string        `json:"url"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	// StructuredOutput is the raw payload as the service returned it:
	// nil, a decoded JSON object, or a plain string. Interpreting it is
	// the normalizer's job, not the transport's.
	StructuredOutput any `json:"structured_output,omitempty"`
}
