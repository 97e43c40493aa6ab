// File: internal/tracker/tracker.go
// Description: Thin read/write wrapper over the GitHub issues API. The
// core treats any tracker failure as fatal to the calling orchestration
// step; nothing here retries.

package tracker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/config"
)

// repoNamePattern validates the owner/name repository format.
var repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+/[a-zA-Z0-9._-]+$`)

// Error wraps a tracker API failure with the repo and issue context that
// produced it.
type Error struct {
	Repo   string
	Number int
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Number > 0 {
		return fmt.Sprintf("tracker %s failed for %s#%d: %v", e.Op, e.Repo, e.Number, e.Err)
	}
	return fmt.Sprintf("tracker %s failed for %s: %v", e.Op, e.Repo, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client lists and fetches issues and manages issue comments.
type Client struct {
	gh     *github.Client
	logger *zap.Logger
}

// Statically assert that Client implements the TrackerClient contract.
var _ schemas.TrackerClient = (*Client)(nil)

// NewClient builds an authenticated GitHub client. A missing or
// placeholder token is rejected before any request is made.
func NewClient(cfg config.TrackerConfig, logger *zap.Logger) (*Client, error) {
	if !config.ValidToken(cfg.Token) {
		return nil, &config.CredentialError{Name: "tracker.token", Hint: "set TRIAGE_GITHUB_TOKEN to a valid GitHub token"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		gh:     github.NewClient(nil).WithAuthToken(cfg.Token),
		logger: logger.Named("tracker"),
	}, nil
}

// ValidRepoName reports whether repo has the owner/name shape.
func ValidRepoName(repo string) bool {
	return repoNamePattern.MatchString(repo)
}

// splitRepo breaks "owner/name" into its parts.
func splitRepo(repo string) (owner, name string, err error) {
	if !ValidRepoName(repo) {
		return "", "", fmt.Errorf("repository must be in owner/name format, got %q", repo)
	}
	parts := strings.SplitN(repo, "/", 2)
	return parts[0], parts[1], nil
}

// ListIssues returns up to limit issues in the given state. Pull requests
// share the issues endpoint on GitHub and are filtered out here.
func (c *Client) ListIssues(ctx context.Context, repo, state string, limit int) ([]schemas.Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, &Error{Repo: repo, Op: "list_issues", Err: err}
	}
	if limit <= 0 {
		limit = 50
	}

	opts := &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: min(limit, 100)},
	}

	var issues []schemas.Issue
	for {
		page, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, &Error{Repo: repo, Op: "list_issues", Err: err}
		}
		for _, is := range page {
			if is.IsPullRequest() {
				continue
			}
			issues = append(issues, toIssue(is, repo))
			if len(issues) >= limit {
				return issues, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug("Listed issues", zap.String("repo", repo), zap.String("state", state), zap.Int("count", len(issues)))
	return issues, nil
}

// GetIssue fetches a single issue snapshot.
func (c *Client) GetIssue(ctx context.Context, repo string, number int) (schemas.Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return schemas.Issue{}, &Error{Repo: repo, Number: number, Op: "get_issue", Err: err}
	}

	is, _, err := c.gh.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return schemas.Issue{}, &Error{Repo: repo, Number: number, Op: "get_issue", Err: err}
	}
	return toIssue(is, repo), nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, repo string, number int, body string) (schemas.CommentReceipt, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return schemas.CommentReceipt{}, &Error{Repo: repo, Number: number, Op: "add_comment", Err: err}
	}

	comment, _, err := c.gh.Issues.CreateComment(ctx, owner, name, number, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return schemas.CommentReceipt{}, &Error{Repo: repo, Number: number, Op: "add_comment", Err: err}
	}
	return schemas.CommentReceipt{ID: comment.GetID(), URL: comment.GetHTMLURL()}, nil
}

// DeleteComment removes a comment by id.
func (c *Client) DeleteComment(ctx context.Context, repo string, commentID int64) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return &Error{Repo: repo, Op: "delete_comment", Err: err}
	}

	if _, err := c.gh.Issues.DeleteComment(ctx, owner, name, commentID); err != nil {
		return &Error{Repo: repo, Op: "delete_comment", Err: err}
	}
	return nil
}

// ListComments returns all comments on an issue, oldest first.
func (c *Client) ListComments(ctx context.Context, repo string, number int) ([]schemas.Comment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, &Error{Repo: repo, Number: number, Op: "list_comments", Err: err}
	}

	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var comments []schemas.Comment
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, owner, name, number, opts)
		if err != nil {
			return nil, &Error{Repo: repo, Number: number, Op: "list_comments", Err: err}
		}
		for _, cm := range page {
			comments = append(comments, schemas.Comment{
				ID:        cm.GetID(),
				Body:      cm.GetBody(),
				Author:    cm.GetUser().GetLogin(),
				CreatedAt: cm.GetCreatedAt().Time,
				URL:       cm.GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}

// toIssue maps the GitHub wire type to the immutable snapshot the core
// works with.
func toIssue(is *github.Issue, repo string) schemas.Issue {
	labels := make([]string, 0, len(is.Labels))
	for _, l := range is.Labels {
		labels = append(labels, l.GetName())
	}
	assignees := make([]string, 0, len(is.Assignees))
	for _, a := range is.Assignees {
		assignees = append(assignees, a.GetLogin())
	}
	return schemas.Issue{
		Number:     is.GetNumber(),
		Title:      is.GetTitle(),
		Body:       is.GetBody(),
		State:      schemas.IssueState(is.GetState()),
		CreatedAt:  is.GetCreatedAt().Time,
		UpdatedAt:  is.GetUpdatedAt().Time,
		Labels:     labels,
		Assignees:  assignees,
		URL:        is.GetHTMLURL(),
		Repository: repo,
	}
}
