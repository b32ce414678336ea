package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shortsboard/youtube-data-client/internal/testutil"
	"github.com/shortsboard/youtube-data-client/pkg/keypool"
)

func newTestClient(t *testing.T, mock *testutil.MockAPI, keys ...string) (*Client, *keypool.Pool) {
	t.Helper()

	pool := keypool.New(nil, zerolog.Nop())
	if err := pool.Load(context.Background(), keypool.StaticSource(keypool.OriginEnvironment, keys...)); err != nil {
		t.Fatalf("pool.Load() error = %v", err)
	}

	c, err := New(pool, Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, pool
}

func TestExecuteSuccess(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/videos", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.ListBody("", `{"id":"abc123"}`),
	})

	c, _ := newTestClient(t, mock, "key-a")

	resp, err := c.Execute(context.Background(), "/videos", map[string]string{"part": "snippet"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(resp.Items))
	}
	if resp.NextPageToken != "" {
		t.Errorf("NextPageToken = %q, want empty", resp.NextPageToken)
	}

	keys := mock.GetKeysSeen()
	if len(keys) != 1 || keys[0] != "key-a" {
		t.Errorf("keys seen = %v, want [key-a]", keys)
	}
}

func TestExecuteRotatesOnQuotaExceeded(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	// key-a is out of quota, key-b succeeds.
	mock.SetHandler("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("key") == "key-a" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(testutil.QuotaExceededBody))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testutil.ListBody("", `{"id":"found"}`)))
	})

	c, pool := newTestClient(t, mock, "key-a", "key-b", "key-c")

	resp, err := c.Execute(context.Background(), "/search", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(resp.Items))
	}

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
	keys := mock.GetKeysSeen()
	want := []string{"key-a", "key-b"}
	for i, w := range want {
		if keys[i] != w {
			t.Errorf("keys seen = %v, want %v", keys, want)
			break
		}
	}
	if got := pool.Cursor(); got != 1 {
		t.Errorf("pool cursor = %d, want 1 after rotation", got)
	}
	if got := pool.Remaining(); got != 2 {
		t.Errorf("pool remaining = %d, want 2", got)
	}
}

func TestExecuteRotatesCorrectKeyAfterCursorWrap(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	// key-a and key-b are out of quota, key-c succeeds.
	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if k := r.URL.Query().Get("key"); k == "key-a" || k == "key-b" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(testutil.QuotaExceededBody))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testutil.ListBody("", `{"id":"found"}`)))
	})

	c, pool := newTestClient(t, mock, "key-a", "key-b", "key-c")

	// key-a burned out earlier; administrative rotations then wrapped the
	// cursor back onto its exhausted index.
	pool.Rotate(context.Background(), keypool.ReasonQuotaExceeded)
	pool.Rotate(context.Background(), keypool.ReasonAdministrative)
	pool.Rotate(context.Background(), keypool.ReasonAdministrative)

	resp, err := c.Execute(context.Background(), "/videos", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(resp.Items))
	}

	// key-b's quota mark must not strand key-c untried.
	keys := mock.GetKeysSeen()
	want := []string{"key-b", "key-c"}
	if len(keys) != len(want) {
		t.Fatalf("keys seen = %v, want %v", keys, want)
	}
	for i, w := range want {
		if keys[i] != w {
			t.Fatalf("keys seen = %v, want %v", keys, want)
		}
	}
	if got := pool.Remaining(); got != 1 {
		t.Errorf("pool remaining = %d, want 1", got)
	}
}

func TestExecuteAllKeysExhausted(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/videos", testutil.NewQuotaExceededResponse())

	c, pool := newTestClient(t, mock, "key-a", "key-b")

	_, err := c.Execute(context.Background(), "/videos", nil)
	if !errors.Is(err, keypool.ErrAllKeysExhausted) {
		t.Fatalf("Execute() error = %v, want ErrAllKeysExhausted", err)
	}

	// Exactly one attempt per key, no extra loops.
	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
	if got := pool.Remaining(); got != 0 {
		t.Errorf("pool remaining = %d, want 0", got)
	}
}

func TestExecuteSingleKeyQuota(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/channels", testutil.NewQuotaExceededResponse())

	c, _ := newTestClient(t, mock, "key-a")

	_, err := c.Execute(context.Background(), "/channels", nil)
	if !errors.Is(err, keypool.ErrAllKeysExhausted) {
		t.Fatalf("Execute() error = %v, want ErrAllKeysExhausted", err)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
}

func TestExecuteNonQuotaClientError(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/videos", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error":{"code":404,"message":"Video not found.","errors":[{"reason":"videoNotFound"}]}}`,
	})

	c, pool := newTestClient(t, mock, "key-a", "key-b")

	_, err := c.Execute(context.Background(), "/videos", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Execute() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassClient {
		t.Errorf("Class = %s, want client", apiErr.Class)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "Video not found." {
		t.Errorf("Message = %q, want upstream message", apiErr.Message)
	}

	// No rotation on non-quota errors.
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
	if got := pool.Cursor(); got != 0 {
		t.Errorf("pool cursor = %d, want 0", got)
	}
}

func TestExecuteForbiddenWithoutQuotaReason(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	// 403 for an unrelated reason must not trigger rotation.
	mock.SetResponse("/videos", testutil.MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"error":{"code":403,"message":"Access forbidden.","errors":[{"reason":"forbidden"}]}}`,
	})

	c, _ := newTestClient(t, mock, "key-a", "key-b")

	_, err := c.Execute(context.Background(), "/videos", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Execute() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassClient {
		t.Errorf("Class = %s, want client", apiErr.Class)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
}

func TestExecuteServerError(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/videos", testutil.MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"error":{"code":503,"message":"Backend unavailable."}}`,
	})

	c, _ := newTestClient(t, mock, "key-a", "key-b")

	_, err := c.Execute(context.Background(), "/videos", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Execute() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassServer {
		t.Errorf("Class = %s, want server", apiErr.Class)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1 (no retry on 5xx)", got)
	}
}

func TestExecuteNetworkErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockAPI()
	mock.Close() // connection refused from here on

	pool := keypool.New(nil, zerolog.Nop())
	if err := pool.Load(context.Background(), keypool.StaticSource(keypool.OriginEnvironment, "key-a", "key-b")); err != nil {
		t.Fatalf("pool.Load() error = %v", err)
	}
	c, err := New(pool, Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Execute(context.Background(), "/videos", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Execute() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassNetwork {
		t.Errorf("Class = %s, want network", apiErr.Class)
	}
	if got := pool.Remaining(); got != 2 {
		t.Errorf("pool remaining = %d, want 2 (network errors do not exhaust keys)", got)
	}
}

func TestExecuteMalformedSuccessBody(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/videos", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"items": [truncated`,
	})

	c, _ := newTestClient(t, mock, "key-a")

	_, err := c.Execute(context.Background(), "/videos", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Execute() error = %v, want *APIError", err)
	}
	if apiErr.Class != ErrorClassParse {
		t.Errorf("Class = %s, want parse", apiErr.Class)
	}
}

func TestExecuteParamsForwarded(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	var gotPart, gotID string
	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		gotPart = r.URL.Query().Get("part")
		gotID = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testutil.ListBody("")))
	})

	c, _ := newTestClient(t, mock, "key-a")

	_, err := c.Execute(context.Background(), "/videos", map[string]string{
		"part": "snippet,contentDetails",
		"id":   "a,b,c",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if gotPart != "snippet,contentDetails" {
		t.Errorf("part = %q", gotPart)
	}
	if gotID != "a,b,c" {
		t.Errorf("id = %q", gotID)
	}
}

func TestNewRequiresPool(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Error("New(nil) expected error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}
