// Preview download with retry
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/previewer/internal/models"
	"github.com/desertthunder/previewer/internal/retry"
	"github.com/desertthunder/previewer/internal/shared"
	"golang.org/x/time/rate"
)

// HTTPError is a non-2xx preview response. It is terminal.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("preview request failed: status %d", e.Status)
}

func (e *HTTPError) Unwrap() error {
	return shared.ErrTerminalFetch
}

// TransientError is a timeout or connection failure that may succeed on retry.
type TransientError struct {
	URL string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() []error {
	return []error{shared.ErrTransientFetch, e.Err}
}

// IsRetryable is the default retry predicate: only [TransientError]s are retried.
func IsRetryable(err error) bool {
	return errors.Is(err, shared.ErrTransientFetch)
}

// isTransportFailure reports whether err from [http.Client.Do] or a body read is a timeout or connection failure.
func isTransportFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.As(err, &opErr):
		return true
	}
	return false
}

// PreviewFetcher downloads preview payloads, retrying transient failures with a [retry.Policy].
type PreviewFetcher struct {
	httpClient *http.Client
	policy     *retry.Policy
	retryable  retry.Retryable
	limiter    *rate.Limiter
	logger     *log.Logger
	userAgent  string
	maxBytes   int64
	attempts   atomic.Int64
}

// FetcherOpts configures a [PreviewFetcher].
type FetcherOpts struct {
	HTTPClient *http.Client    // per-request timeout lives here
	Policy     *retry.Policy   // defaults to 3 attempts
	Retryable  retry.Retryable // defaults to [IsRetryable]
	RateLimit  float64         // requests per second across all pipelines, 0 disables
	Logger     *log.Logger
	UserAgent  string
	MaxBytes   int64 // 0 means unlimited
}

// NewPreviewFetcher creates a fetcher. Missing options fall back to defaults.
func NewPreviewFetcher(opts FetcherOpts) *PreviewFetcher {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Policy == nil {
		opts.Policy = retry.New(retry.DefaultAttempts, retry.DefaultBase)
	}
	if opts.Retryable == nil {
		opts.Retryable = IsRetryable
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &PreviewFetcher{
		httpClient: opts.HTTPClient,
		policy:     opts.Policy,
		retryable:  opts.Retryable,
		limiter:    limiter,
		logger:     opts.Logger,
		userAgent:  opts.UserAgent,
		maxBytes:   opts.MaxBytes,
	}
}

// Attempts returns the number of GET attempts made so far, across all calls.
func (f *PreviewFetcher) Attempts() int64 {
	return f.attempts.Load()
}

// Fetch downloads the payload at url.
//
// Non-2xx responses fail with [*HTTPError] without retry. Timeouts and connection failures
// are retried by the policy; once the attempt budget is spent the error satisfies
// errors.Is(err, [shared.ErrTerminalFetch]) as well as the transient cause.
// The returned [models.Download] carries the attempt count even when err is non-nil.
func (f *PreviewFetcher) Fetch(ctx context.Context, url string) (models.Download, error) {
	var dl models.Download
	body, err := retry.DoValue(ctx, f.policy, func(ctx context.Context, attempt int) ([]byte, error) {
		return f.attempt(ctx, url, attempt, &dl.Attempts)
	}, f.retryable)
	dl.Body = body

	if errors.Is(err, retry.ErrExhausted) {
		return dl, fmt.Errorf("%w: %w", shared.ErrTerminalFetch, err)
	}
	return dl, err
}

// attemptLogger prefers the logger carried by ctx, so per-attempt lines keep the caller's run and
// track fields.
func (f *PreviewFetcher) attemptLogger(ctx context.Context, url string) *log.Logger {
	if logger, ok := ctx.Value(log.ContextKey).(*log.Logger); ok {
		return logger
	}
	return f.logger.With("url", url)
}

func (f *PreviewFetcher) attempt(ctx context.Context, url string, attempt int, sent *int) ([]byte, error) {
	logger := f.attemptLogger(ctx, url).With("attempt", attempt)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	*sent++
	f.attempts.Add(1)
	logger.Debug("fetching preview")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrTerminalFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil && isTransportFailure(err) {
			logger.Warn("fetch attempt failed", "outcome", "transient", "error", err)
			return nil, &TransientError{URL: url, Err: err}
		}
		logger.Error("fetch attempt failed", "outcome", "terminal", "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrTerminalFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("fetch attempt failed", "outcome", "http_error", "status", resp.StatusCode)
		return nil, &HTTPError{URL: url, Status: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		if ctx.Err() == nil && isTransportFailure(err) {
			logger.Warn("fetch attempt failed", "outcome", "transient", "error", err)
			return nil, &TransientError{URL: url, Err: err}
		}
		return nil, fmt.Errorf("%w: failed to read body: %w", shared.ErrTerminalFetch, err)
	}

	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		logger.Warn("fetch attempt failed", "outcome", "too_large", "max_bytes", f.maxBytes)
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", shared.ErrTerminalFetch, f.maxBytes)
	}

	logger.Debug("fetched preview", "outcome", "ok", "bytes", len(body))
	return body, nil
}
