package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// SessionCookie is the name of the backend's session cookie.
const SessionCookie = "session"

// Client is the BrainHR back-office API client. Credentials travel as the
// backend's session cookie, kept in a cookie jar.
type Client struct {
	baseURL    string
	base       *url.URL
	session    string
	logger     *slog.Logger
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	retrier    *retrier.Retrier
}

// Option configures a Client.
type Option func(*Client)

// WithSession seeds the cookie jar with a previously stored session cookie.
func WithSession(value string) Option {
	return func(c *Client) { c.session = value }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client.New: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client.New: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		base:    base,
		logger:  slog.New(slog.DiscardHandler),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // nil options never fail
	c.httpClient.Jar = jar
	if c.session != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: SessionCookie, Value: c.session, Path: "/"}})
	}

	c.logger = c.logger.With("component", "client")
	c.breaker = newBreaker(c.logger)
	c.retrier = newRetrier()
	return c, nil
}

// Session returns the current session cookie value, or "" when signed out.
func (c *Client) Session() string {
	for _, ck := range c.httpClient.Jar.Cookies(c.base) {
		if ck.Name == SessionCookie {
			return ck.Value
		}
	}
	return ""
}

// Health pings the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, "/health", nil); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}

// --- Session methods ---

// Login signs in as the given role. On success the session cookie is held
// by the client; read it back with Session.
func (c *Client) Login(ctx context.Context, role domain.Role, creds domain.Credentials) (*domain.Actor, error) {
	var resp map[string]json.RawMessage
	if err := c.post(ctx, "/api/"+url.PathEscape(string(role))+"/login", creds, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	actor := domain.Actor{Username: creds.Username}
	if raw, ok := resp[string(role)]; ok {
		if err := json.Unmarshal(raw, &actor); err != nil {
			return nil, fmt.Errorf("client.Login: %w: %v", ErrMalformedResponse, err)
		}
	}
	return &actor, nil
}

// Logout ends the session for the given role.
func (c *Client) Logout(ctx context.Context, role domain.Role) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/"+url.PathEscape(string(role))+"/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Me returns the signed-in account for the given role.
func (c *Client) Me(ctx context.Context, role domain.Role) (*domain.Actor, error) {
	var a domain.Actor
	if err := c.get(ctx, "/api/"+url.PathEscape(string(role))+"/me", &a); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &a, nil
}

// --- Message methods ---

// UnreadCount returns the number of unread messages addressed to the
// signed-in account.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var uc domain.UnreadCount
	if err := c.get(ctx, "/api/unread-count", &uc); err != nil {
		return 0, fmt.Errorf("client.UnreadCount: %w", err)
	}
	return uc.UnreadCount, nil
}

// MyMessages returns the role's inbox, newest first as ordered by the
// backend. An empty msgContext returns every context.
func (c *Client) MyMessages(ctx context.Context, role domain.Role, msgContext string) ([]domain.Message, error) {
	path := "/api/" + url.PathEscape(string(role)) + "/my-messages"
	if msgContext != "" {
		params := url.Values{}
		params.Set("context", msgContext)
		path += "?" + params.Encode()
	}

	var msgs []domain.Message
	if err := c.get(ctx, path, &msgs); err != nil {
		return nil, fmt.Errorf("client.MyMessages: %w", err)
	}
	return msgs, nil
}

// MarkRead marks a message read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/messages/mark-read/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return fmt.Errorf("client.MarkRead: %w", err)
	}
	return nil
}

// SendMessage posts a new message.
func (c *Client) SendMessage(ctx context.Context, msg domain.NewMessage) (*domain.MessageCreated, error) {
	var created domain.MessageCreated
	if err := c.post(ctx, "/api/messages", msg, &created); err != nil {
		return nil, fmt.Errorf("client.SendMessage: %w", err)
	}
	return &created, nil
}

// Managers lists the managers an employee can write to.
func (c *Client) Managers(ctx context.Context) ([]domain.Recipient, error) {
	var rs []domain.Recipient
	if err := c.get(ctx, "/api/employee/managers", &rs); err != nil {
		return nil, fmt.Errorf("client.Managers: %w", err)
	}
	return rs, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

// doRequest sends one logical request through the circuit breaker. GETs are
// retried on transport failures; writes are sent once.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	reqID := uuid.NewString()
	attempt := func(ctx context.Context) error {
		_, err := c.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, c.send(ctx, reqID, method, path, data, out)
		})
		return err
	}

	start := time.Now()
	var err error
	if method == http.MethodGet {
		err = c.retrier.RunCtx(ctx, attempt)
	} else {
		err = attempt(ctx)
	}
	c.logger.Debug("api request",
		"request_id", reqID,
		"method", method,
		"path", path,
		"duration", time.Since(start),
		"err", err,
	)
	return err
}

func (c *Client) send(ctx context.Context, reqID, method, path string, data []byte, out any) error {
	var reqBody io.Reader
	if data != nil {
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}
