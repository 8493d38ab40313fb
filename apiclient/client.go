// Package apiclient talks to the board server's REST API: the lookups the
// watcher needs (users, boards, blocks, memberships) and the remote
// notification store.
//
// Lookups return (nil, nil) when the server answers 404; an absent entity
// means there is nothing to notify about, not a failure. Other non-2xx
// answers come back as *StatusError. GETs are retried with backoff; writes
// are sent once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/models"
)

const apiPrefix = "/api/v2"

// StatusError is a non-2xx answer from the board server.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

var errDecode = errors.New("decode response")

// retryable: network failures, 5xx, 429 and 408.
func retryable(err error) bool {
	if errors.Is(err, errDecode) {
		return false
	}
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	return se.StatusCode >= 500 ||
		se.StatusCode == http.StatusTooManyRequests ||
		se.StatusCode == http.StatusRequestTimeout
}

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	log      *zap.Logger
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log.Named("apiclient") }
}

// WithRetry sets how often and how fast GETs are retried. attempts counts
// the first try.
func WithRetry(attempts uint, delay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
		c.maxDelay = maxDelay
	}
}

// New creates a client for the server at baseURL (scheme://host[/base])
// authenticated with a bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		token:    token,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      zap.NewNop(),
		attempts: 4,
		delay:    250 * time.Millisecond,
		maxDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ─── Users & memberships ───

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	found, err := c.get(ctx, "/users/me", &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetUser returns a user by id, or nil when it does not exist.
func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	found, err := c.get(ctx, "/users/"+url.PathEscape(userID), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// MyBoardMemberships lists every board membership of the authenticated user.
func (c *Client) MyBoardMemberships(ctx context.Context) ([]models.BoardMember, error) {
	members := []models.BoardMember{}
	if _, err := c.get(ctx, "/users/me/memberships", &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ─── Boards & blocks ───

// GetBoard returns a board, or nil when it does not exist.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*models.Board, error) {
	var board models.Board
	found, err := c.get(ctx, "/boards/"+url.PathEscape(boardID), &board)
	if err != nil || !found {
		return nil, err
	}
	return &board, nil
}

// GetBlock returns one block of a board, or nil when it does not exist.
func (c *Client) GetBlock(ctx context.Context, boardID, blockID string) (*models.Block, error) {
	path := "/boards/" + url.PathEscape(boardID) + "/blocks?block_id=" + url.QueryEscape(blockID)

	var blocks []models.Block
	found, err := c.get(ctx, path, &blocks)
	if err != nil || !found || len(blocks) == 0 {
		return nil, err
	}
	return &blocks[0], nil
}

// ─── Notifications ───

// ListNotifications returns up to limit notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	notifications := []models.Notification{}
	if _, err := c.get(ctx, "/notifications?limit="+strconv.Itoa(limit), &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CreateNotification stores a notification for the authenticated user.
func (c *Client) CreateNotification(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	var created models.Notification
	if err := c.do(ctx, http.MethodPost, "/notifications", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification of the user read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/notifications/mark_all_as_read", nil, nil)
}

// ─── Transport ───

// get decodes a JSON GET response into out, retrying transient failures.
// found is false on 404.
func (c *Client) get(ctx context.Context, path string, out any) (found bool, err error) {
	var lastErr error
	err = retry.Do(
		func() error {
			lastErr = c.do(ctx, http.MethodGet, path, nil, out)
			return lastErr
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(c.maxDelay),
		retry.MaxJitter(c.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug("retrying request", zap.String("path", path), zap.Uint("attempt", n+1), zap.Error(err))
		}),
		retry.RetryIf(retryable),
	)
	if err != nil && lastErr != nil {
		err = lastErr
	}
	if IsStatus(err, http.StatusNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Debug("failed to close response body", zap.Error(closeErr))
		}
	}()

	c.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", errDecode, method, path, err)
	}
	return nil
}
