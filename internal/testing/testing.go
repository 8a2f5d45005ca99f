// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/songrec/internal/models"
)

// FakeClient is a scripted search/recommend client.
//
// Each call pops the next queued reply; when a queue is empty the zero reply is
// a successful empty response. Release, when set, blocks a call until a value
// arrives, which lets tests hold requests in flight.
type FakeClient struct {
	mu sync.Mutex

	SearchReplies    []SearchReply
	RecommendReplies []RecommendReply

	SearchCalls    []string
	RecommendCalls []string

	Release chan struct{}
}

// SearchReply is one scripted response to a search.
type SearchReply struct {
	Response *models.SearchResponse
	Err      error
}

// RecommendReply is one scripted response to a recommendation request.
type RecommendReply struct {
	Response *models.RecommendResponse
	Err      error
}

func (f *FakeClient) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	f.mu.Lock()
	f.SearchCalls = append(f.SearchCalls, query)
	reply := SearchReply{Response: &models.SearchResponse{Success: true}}
	if len(f.SearchReplies) > 0 {
		reply, f.SearchReplies = f.SearchReplies[0], f.SearchReplies[1:]
	}
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return reply.Response, reply.Err
}

func (f *FakeClient) Recommend(ctx context.Context, trackID string) (*models.RecommendResponse, error) {
	f.mu.Lock()
	f.RecommendCalls = append(f.RecommendCalls, trackID)
	reply := RecommendReply{Response: &models.RecommendResponse{Success: true}}
	if len(f.RecommendReplies) > 0 {
		reply, f.RecommendReplies = f.RecommendReplies[0], f.RecommendReplies[1:]
	}
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return reply.Response, reply.Err
}

// Calls returns the number of search and recommend calls seen so far.
func (f *FakeClient) Calls() (search, recommend int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SearchCalls), len(f.RecommendCalls)
}

func (f *FakeClient) wait(ctx context.Context) error {
	if f.Release == nil {
		return nil
	}
	select {
	case <-f.Release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
