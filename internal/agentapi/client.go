// File: internal/agentapi/client.go
// Description: HTTP client for the asynchronous coding-agent service.
// Owns the session protocol: creation, status polling, and the
// wait-with-backoff loop that bridges the service's minutes-long sessions
// into a single blocking call.

package agentapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/config"
)

// Polling backoff parameters. The backoff grows geometrically so slow
// sessions settle into one poll per cap interval while fast sessions are
// picked up within a second or two.
const (
	initialBackoff  = 1 * time.Second
	backoffFactor   = 1.5
	maxPollInterval = 30 * time.Second

	// DefaultMaxWait bounds AwaitCompletion when the caller passes no
	// explicit deadline.
	DefaultMaxWait = 30 * time.Minute
)

// Client speaks the agent service's session wire contract. Bearer
// credentials travel over this channel, so TLS verification (hostname
// check plus full chain) is mandatory and there is deliberately no knob
// to turn it off.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	// limiter caps status polls across all concurrent waits so a burst of
	// orchestrations cannot hammer the service.
	limiter *rate.Limiter
	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
	// now is swapped out in tests for deterministic session timestamps.
	now func() time.Time
}

// Statically assert that Client implements the AgentClient contract.
var _ schemas.AgentClient = (*Client)(nil)

// NewClient constructs a Client from configuration. It fails fast on a
// missing or placeholder API key so no request is ever sent with template
// credentials.
func NewClient(cfg config.AgentConfig, logger *zap.Logger) (*Client, error) {
	if !config.ValidToken(cfg.APIKey) {
		return nil, &config.CredentialError{Name: "agent.api_key", Hint: "set TRIAGE_AGENT_API_KEY to a valid agent service key"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			// Enforce TLS 1.2 as the minimum version. Verification is the
			// stdlib default and is never disabled here.
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Warn("Failed to configure HTTP/2 transport, falling back to HTTP/1.1", zap.Error(err))
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pollRate := cfg.PollRate
	if pollRate <= 0 {
		pollRate = 2.0
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Transport: transport,
			// Each individual request has its own timeout, independent of
			// the overall wait deadline, so one hung request cannot stall
			// the backoff loop indefinitely.
			Timeout: timeout,
		},
		logger:  logger.Named("agentapi"),
		limiter: rate.NewLimiter(rate.Limit(pollRate), 1),
		sleep:   sleepContext,
		now:     time.Now,
	}, nil
}

// sessionEnvelope tolerates both field-name generations of the service's
// wire format: the request and response names vary across service
// versions, and either alias may appear on read.
type sessionEnvelope struct {
	SessionID        string `json:"session_id"`
	ID               string `json:"id"`
	URL              string `json:"url"`
	SessionURL       string `json:"session_url"`
	Status           string `json:"status"`
	StatusEnum       string `json:"status_enum"`
	StructuredOutput any    `json:"structured_output"`
	Output           any    `json:"output"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// createSessionRequest is the session creation body. PrefillResponse is a
// short hint that biases the agent toward a particular response opening,
// typically "{" to elicit a raw JSON object.
type createSessionRequest struct {
	Prompt          string `json:"prompt"`
	PrefillResponse string `json:"prefill_response,omitempty"`
}

// CreateSession starts a new agent session from a prompt and returns it
// in its initial, non-terminal status as reported by the service.
func (c *Client) CreateSession(ctx context.Context, prompt, prefill string) (schemas.Session, error) {
	body, err := json.Marshal(createSessionRequest{Prompt: prompt, PrefillResponse: prefill})
	if err != nil {
		return schemas.Session{}, fmt.Errorf("failed to marshal session request: %w", err)
	}

	env, err := c.do(ctx, http.MethodPost, c.baseURL+"/sessions", bytes.NewReader(body), "create_session")
	if err != nil {
		return schemas.Session{}, err
	}

	sess := schemas.Session{
		ID:        firstNonEmpty(env.SessionID, env.ID),
		URL:       firstNonEmpty(env.URL, env.SessionURL),
		Status:    schemas.SessionStatus(firstNonEmpty(env.Status, string(schemas.StatusRunning))),
		CreatedAt: c.now(),
	}
	c.logger.Info("Agent session created",
		zap.String("session_id", sess.ID),
		zap.String("status", string(sess.Status)),
		zap.String("url", sess.URL))
	return sess, nil
}

// GetSession fetches the current status and output for a session. The
// structured output is passed through untouched; deciding whether it is a
// string, JSON-as-string or object is the normalizer's concern.
func (c *Client) GetSession(ctx context.Context, sessionID string) (schemas.Session, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return schemas.Session{}, err
	}

	env, err := c.do(ctx, http.MethodGet, c.baseURL+"/sessions/"+sessionID, nil, "get_session")
	if err != nil {
		return schemas.Session{}, err
	}

	output := env.StructuredOutput
	if output == nil {
		output = env.Output
	}
	return schemas.Session{
		ID:               sessionID,
		URL:              firstNonEmpty(env.URL, env.SessionURL),
		Status:           schemas.SessionStatus(firstNonEmpty(env.Status, env.StatusEnum, string(schemas.StatusUnknown))),
		CreatedAt:        c.now(),
		StructuredOutput: output,
	}, nil
}

// AwaitCompletion polls GetSession with exponential backoff until the
// session reaches a terminal status, returning the final session state.
// A maxWait of zero selects DefaultMaxWait.
//
// The elapsed-time accumulator intentionally advances by the uncapped
// backoff value rather than the capped sleep duration, matching the
// behavior callers of this service have depended on: near the deadline
// the loop may overshoot maxWait by up to maxPollInterval. The test suite
// pins this down.
//
// Cancelling ctx stops local polling only. The remote session keeps
// running; the service offers no mid-flight cancellation.
func (c *Client) AwaitCompletion(ctx context.Context, sessionID string, maxWait time.Duration) (schemas.Session, error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	backoff := initialBackoff
	var totalWait time.Duration
	polls := 0

	for totalWait < maxWait {
		sess, err := c.GetSession(ctx, sessionID)
		if err != nil {
			return schemas.Session{}, err
		}
		polls++

		if sess.Status.Terminal() {
			c.logger.Info("Agent session reached terminal status",
				zap.String("session_id", sessionID),
				zap.String("status", string(sess.Status)),
				zap.Int("polls", polls))
			return sess, nil
		}

		c.logger.Debug("Agent session still running",
			zap.String("session_id", sessionID),
			zap.String("status", string(sess.Status)),
			zap.Duration("next_sleep", min(backoff, maxPollInterval)))

		if err := c.sleep(ctx, min(backoff, maxPollInterval)); err != nil {
			return schemas.Session{}, err
		}
		backoff = time.Duration(float64(backoff) * backoffFactor)
		totalWait += backoff
	}

	return schemas.Session{}, &TimeoutError{SessionID: sessionID, MaxWait: maxWait}
}

// do executes one request against the service and decodes the session
// envelope. Non-2xx responses become a ServiceError carrying the status
// code and body.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, op string) (sessionEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return sessionEnvelope{}, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sessionEnvelope{}, fmt.Errorf("agent service %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return sessionEnvelope{}, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return sessionEnvelope{}, &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var env sessionEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return sessionEnvelope{}, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return env, nil
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
