package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"githubActivity/internal/model"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultPerPage = 100
	DefaultTimeout = 10 * time.Second
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrNetwork          = errors.New("network error")
	ErrUnexpectedStatus = errors.New("unexpected response")
)

// StatusError is a non-2xx answer from the API. It unwraps to the sentinel
// matching its code.
type StatusError struct {
	Code int
	// Reset is when the rate limit window ends, zero if not sent.
	Reset time.Time
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github responded %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrUserNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUnexpectedStatus
	}
}

type Options struct {
	BaseURL   string
	Token     string
	PerPage   int
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond bounds outbound calls. Zero or less means unlimited.
	RequestsPerSecond float64
}

type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	lg      *zap.Logger
}

func New(opts Options, lg *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "github-activity"
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		lg:      lg,
	}
}

func (c *Client) eventsURL(username string) string {
	return fmt.Sprintf("%s/users/%s/events?page=1&per_page=%d",
		c.opts.BaseURL, url.PathEscape(username), c.opts.PerPage)
}

// UserEvents issues one GET for the user's public events and returns the
// response body untouched. Use Decode to turn it into records.
func (c *Client) UserEvents(ctx context.Context, username string) ([]byte, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrUserNotFound)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	u := c.eventsURL(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	c.lg.Info("api_fetch_flight", zap.String("url", u))
	start := time.Now()

	res, err := c.http.Do(req)
	if err != nil {
		c.lg.Error("api_fetch_error", zap.String("url", u), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer res.Body.Close()

	c.lg.Info("api_fetch_done",
		zap.String("url", u),
		zap.Int("status", res.StatusCode),
		zap.Int("content_length", int(res.ContentLength)),
		zap.Duration("latency", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return nil, &StatusError{Code: res.StatusCode, Reset: resetTime(res.Header)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	return body, nil
}

// Decode parses an events response body. Anything other than a JSON array of
// objects is reported as ErrUnexpectedStatus.
func Decode(body []byte) ([]model.RawEvent, error) {
	var out []model.RawEvent
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %w", ErrUnexpectedStatus, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: malformed body: not an array", ErrUnexpectedStatus)
	}
	return out, nil
}

func resetTime(h http.Header) time.Time {
	v := h.Get("X-RateLimit-Reset")
	if v == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
