package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spinefetch/internal/fileutil"
	"spinefetch/internal/logging"
	"spinefetch/internal/services"
)

const (
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryBaseDelay = 3 * time.Second
	defaultRetryMaxDelay  = 60 * time.Second
	defaultRetryAttempts  = 8
)

// Config captures the runtime settings of the download client.
type Config struct {
	UserAgent          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client downloads remote assets to disk.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
	writeFile        func(path string, mode os.FileMode, write func(io.Writer) error) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default attempt budget (defaults to 8).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "fetch")
	}
}

// NewClient constructs a download client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for hosts with broken chains
	}
	client := &Client{
		cfg: Config{
			UserAgent:          strings.TrimSpace(cfg.UserAgent),
			Timeout:            timeout,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		httpClient:       &http.Client{Timeout: timeout, Transport: transport},
		logger:           logging.NewComponentLogger(nil, "fetch"),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		writeFile:        fileutil.WriteAtomic,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type httpStatusError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}

// Download fetches url and writes the body verbatim to dest, creating parent
// directories. Network and HTTP failures are retried until the attempt budget
// is spent; an unusable URL or a local write failure returns at once.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "fetch", "mkdir", dest, err)
	}

	attempts := c.retryAttempts()
	logger := logging.WithContext(ctx, c.logger)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.downloadOnce(ctx, url, dest)
		if err == nil {
			if attempt > 1 {
				logger.Debug("download recovered after retry",
					logging.String("url", url),
					logging.Int("attempt", attempt))
			}
			return nil
		}
		if errors.Is(err, services.ErrStorage) || errors.Is(err, services.ErrValidation) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		delay := c.retryDelay(err, attempt)
		logging.WarnWithContext(logger, "download failed; retrying", "fetch_retry",
			logging.String("url", url),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("delay", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access or the asset host"),
			logging.String(logging.FieldImpact, "the run takes longer"))
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return services.Wrap(services.ErrExhausted, "fetch", "download",
		fmt.Sprintf("%s failed after %d attempts", url, attempts), lastErr)
}

func (c *Client) downloadOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "fetch", "build request", url, err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "request", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := &httpStatusError{URL: url, StatusCode: resp.StatusCode}
		if delay, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			statusErr.RetryAfter = delay
		}
		return services.Wrap(services.ErrTransient, "fetch", "request", "", statusErr)
	}

	body := &bodyReader{r: resp.Body}
	writeErr := c.writeFile(dest, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, body)
		return err
	})
	switch {
	case writeErr == nil:
		return nil
	case body.err != nil:
		return services.Wrap(services.ErrTransient, "fetch", "read body", "", body.err)
	default:
		return services.Wrap(services.ErrStorage, "fetch", "write", dest, writeErr)
	}
}

// bodyReader remembers the last read error so a failed copy can be blamed on
// the network or on the local disk.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		b.err = err
	}
	return n, err
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(err error, attempt int) time.Duration {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return c.capDelay(statusErr.RetryAfter)
	}
	return c.backoffDelay(attempt)
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := c.maxDelay()

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := c.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) maxDelay() time.Duration {
	if c.retryMaxDelay > 0 {
		return c.retryMaxDelay
	}
	return defaultRetryMaxDelay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
