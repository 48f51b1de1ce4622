// Package transport issues the HTTP requests used by the catalog client and
// the install pipeline. Every request is a single attempt; there are no
// retries.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxResponseSize bounds in-memory reads of API responses and icons. File
// downloads are streamed and not subject to this limit.
const MaxResponseSize int64 = 32 << 20

// ErrResponseTooLarge is returned by Get when a body exceeds the size limit.
var ErrResponseTooLarge = errors.New("response body too large")

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Transport is the narrow interface the rest of bhub depends on.
type Transport interface {
	// Get fetches url and returns the whole body.
	Get(ctx context.Context, url string) ([]byte, error)
	// Download streams the body of url into w and returns the byte count.
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP status %d", e.URL, e.Code)
}

// Options configures an HTTP transport.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// MaxResponseSize overrides the Get body limit; 0 means MaxResponseSize.
	MaxResponseSize int64
	// Client overrides the underlying http.Client (tests).
	Client *http.Client
}

// HTTP is the net/http backed Transport.
type HTTP struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTTP returns a Transport using opts.
func NewHTTP(opts Options) *HTTP {
	c := opts.Client
	if c == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c = &http.Client{Timeout: timeout}
	}
	maxBody := opts.MaxResponseSize
	if maxBody <= 0 {
		maxBody = MaxResponseSize
	}
	return &HTTP{client: c, userAgent: opts.UserAgent, maxBody: maxBody}
}

// Get performs a GET and reads the whole body. A body over the size limit
// fails with ErrResponseTooLarge rather than coming back truncated.
func (h *HTTP) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := h.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > h.maxBody {
		return nil, fmt.Errorf("read %s: %w (limit %d bytes)", url, ErrResponseTooLarge, h.maxBody)
	}
	return data, nil
}

// Download performs a GET and copies the body into w.
func (h *HTTP) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := h.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	return n, nil
}

func (h *HTTP) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp, nil
}
