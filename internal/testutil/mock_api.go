// Package testutil provides testing utilities for the Data API client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock Data API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock Data API server for testing. It records
// every request's endpoint and the key query parameter so rotation behavior
// can be asserted.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	KeysSeen     []string
	PathsSeen    []string
}

// NewMockAPI creates a new mock Data API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.KeysSeen = append(mock.KeysSeen, r.URL.Query().Get("key"))
		mock.PathsSeen = append(mock.PathsSeen, r.URL.Path)
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.KeysSeen = nil
	m.PathsSeen = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetKeysSeen returns the key query parameter of every request, in order.
func (m *MockAPI) GetKeysSeen() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.KeysSeen...)
}

// defaultHandler returns an empty successful list response.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"kind":"youtube#response","items":[]}`))
}

// QuotaExceededBody is the canonical quota-exhaustion error body.
const QuotaExceededBody = `{
  "error": {
    "code": 403,
    "message": "The request cannot be completed because you have exceeded your quota.",
    "errors": [
      {
        "domain": "youtube.quota",
        "reason": "quotaExceeded",
        "message": "The request cannot be completed because you have exceeded your quota."
      }
    ]
  }
}`

// NewQuotaExceededResponse creates the canonical 403 quota error.
func NewQuotaExceededResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       QuotaExceededBody,
	}
}

// ListBody builds a successful list response with the given raw item
// JSON fragments and an optional continuation token.
func ListBody(nextPageToken string, items ...string) string {
	var sb strings.Builder
	sb.WriteString(`{"kind":"youtube#response","items":[`)
	sb.WriteString(strings.Join(items, ","))
	sb.WriteString(`]`)
	if nextPageToken != "" {
		fmt.Fprintf(&sb, `,"nextPageToken":%q`, nextPageToken)
	}
	sb.WriteString(`}`)
	return sb.String()
}

// PlaylistItems builds n playlist item fragments with sequential video ids
// starting at start.
func PlaylistItems(start, n int) []string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"contentDetails":{"videoId":"vid%04d"}}`, start+i))
	}
	return items
}
