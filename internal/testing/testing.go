// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/previewer/internal/models"
)

// MockSearcher is a test double for services.Searcher
type MockSearcher struct {
	Tracks []models.TrackDescriptor
	Err    error

	mu      sync.Mutex
	queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string) ([]models.TrackDescriptor, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks, nil
}

func (m *MockSearcher) Name() string { return "mock" }

// Queries returns the queries searched so far.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// MockFetcher is a test double for services.Fetcher that tracks concurrent calls.
//
// URLs present in Errors fail with that error; all others return Payload.
type MockFetcher struct {
	Payload []byte
	Errors  map[string]error
	Delay   time.Duration

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
	mu       sync.Mutex
	urls     []string
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (models.Download, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()

	dl := models.Download{Attempts: 1}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return dl, ctx.Err()
		}
	}

	if err, ok := m.Errors[url]; ok {
		return dl, err
	}
	dl.Body = m.Payload
	return dl, nil
}

// Calls returns the number of Fetch calls.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

// Peak returns the highest number of concurrent Fetch calls observed.
func (m *MockFetcher) Peak() int { return int(m.peak.Load()) }

// URLs returns every fetched URL in call order.
func (m *MockFetcher) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// MockPlayer is a test double for audio.Player
type MockPlayer struct {
	Err   error
	Delay time.Duration
	plays atomic.Int64
}

func (m *MockPlayer) Play(ctx context.Context, payload []byte) error {
	m.plays.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.Err
}

// Plays returns the number of Play calls.
func (m *MockPlayer) Plays() int { return int(m.plays.Load()) }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
