package schemas

import (
	"time"
)

// -- Issue Schemas --

// IssueState is the lifecycle state of a tracked issue.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// Issue is an immutable snapshot of a tracked item, taken at fetch time.
// The core never mutates an Issue; it is owned by the caller for the
// duration of a single orchestration call.
type Issue struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	State      IssueState `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Labels     []string   `json:"labels"`
	Assignees  []string   `json:"assignees"`
	URL        string     `json:"url"`
	Repository string     `json:"repository"`
}

// Comment is a single issue comment as returned by the tracker.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// CommentReceipt reports the outcome of a comment write operation.
type CommentReceipt struct {
	ID  int64  `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}
