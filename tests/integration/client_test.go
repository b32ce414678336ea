package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shortsboard/youtube-data-client/internal/testutil"
	"github.com/shortsboard/youtube-data-client/pkg/client"
	"github.com/shortsboard/youtube-data-client/pkg/keypool"
	"github.com/shortsboard/youtube-data-client/pkg/youtube"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Skipping integration test, could not start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newPool(t *testing.T, store keypool.StateStore, keys ...string) *keypool.Pool {
	t.Helper()
	pool := keypool.New(store, zerolog.Nop())
	if err := pool.Load(context.Background(), keypool.StaticSource(keypool.OriginEnvironment, keys...)); err != nil {
		t.Fatalf("pool.Load() error = %v", err)
	}
	return pool
}

// TestRotationCursorSharedViaRedis verifies that a quota rotation in one
// process is visible to the next process through the Redis-backed cursor.
func TestRotationCursorSharedViaRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	// key-a is out of quota, everything else succeeds.
	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("key") == "key-a" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(testutil.QuotaExceededBody))
			return
		}
		w.Write([]byte(testutil.ListBody("", `{"id":"ok"}`)))
	})

	// First process: starts at cursor 0, rotates past key-a.
	store1 := keypool.NewRedisStore(redisClient, "")
	pool1 := newPool(t, store1, "key-a", "key-b", "key-c")

	c1, err := client.New(pool1, client.Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	if _, err := c1.Execute(ctx, "videos", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := pool1.Cursor(); got != 1 {
		t.Errorf("pool1 cursor = %d, want 1", got)
	}

	// Second process: loads the persisted cursor and starts at key-b, so
	// the known-exhausted key-a is not tried first.
	mock.Reset()
	store2 := keypool.NewRedisStore(redisClient, "")
	pool2 := newPool(t, store2, "key-a", "key-b", "key-c")

	c2, err := client.New(pool2, client.Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	if _, err := c2.Execute(ctx, "videos", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	keys := mock.GetKeysSeen()
	if len(keys) != 1 || keys[0] != "key-b" {
		t.Errorf("second process keys seen = %v, want [key-b]", keys)
	}
}

// TestFullFetchFlow drives the typed service end to end: channel lookup,
// uploads pagination, and batched video details, rotating away from an
// exhausted key mid-flow.
func TestFullFetchFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	const channelID = "UCabcdefghijklmnopqrst12"

	mock.SetHandler("/channels", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// First key burns out on the very first call.
		if r.URL.Query().Get("key") == "key-a" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(testutil.QuotaExceededBody))
			return
		}
		w.Write([]byte(testutil.ListBody("", `{
			"id": "`+channelID+`",
			"snippet": {"title": "Integration Channel"},
			"statistics": {"subscriberCount": "10"},
			"contentDetails": {"relatedPlaylists": {"uploads": "UUabcdefghijklmnopqrst12"}}
		}`)))
	})
	mock.SetHandler("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testutil.ListBody("", testutil.PlaylistItems(0, 4)...)))
	})
	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testutil.ListBody("",
			`{"id":"vid0000","contentDetails":{"duration":"PT30S"}}`,
			`{"id":"vid0001","contentDetails":{"duration":"PT5M"}}`,
			`{"id":"vid0002","contentDetails":{"duration":"PT59S"}}`,
			`{"id":"vid0003","contentDetails":{"duration":"PT2H"}}`,
		)))
	})

	pool := newPool(t, keypool.NewRedisStore(redisClient, ""), "key-a", "key-b")
	c, err := client.New(pool, client.Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	svc := youtube.NewService(c)

	shorts, err := svc.ChannelShorts(ctx, channelID, 10)
	if err != nil {
		t.Fatalf("ChannelShorts() error = %v", err)
	}
	if len(shorts) != 2 {
		t.Fatalf("len(shorts) = %d, want 2", len(shorts))
	}
	if shorts[0].ID != "vid0000" || shorts[1].ID != "vid0002" {
		t.Errorf("shorts = %v, %v, want vid0000 and vid0002", shorts[0].ID, shorts[1].ID)
	}

	// Only the first call hit key-a; the rest of the flow stayed on key-b.
	keys := mock.GetKeysSeen()
	for i, k := range keys {
		if i == 0 {
			if k != "key-a" {
				t.Errorf("first key = %q, want key-a", k)
			}
			continue
		}
		if k != "key-b" {
			t.Errorf("key[%d] = %q, want key-b", i, k)
		}
	}

	// The cursor survives in Redis for the next process.
	cursor, err := keypool.NewRedisStore(redisClient, "").Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cursor != 1 {
		t.Errorf("persisted cursor = %d, want 1", cursor)
	}
}

// TestAllKeysExhaustedAcrossFlow verifies the typed error surfaced to
// callers when every key is burned.
func TestAllKeysExhaustedAcrossFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/search", testutil.NewQuotaExceededResponse())

	pool := newPool(t, keypool.NewRedisStore(redisClient, ""), "key-a", "key-b")
	c, err := client.New(pool, client.Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	svc := youtube.NewService(c)

	_, err = svc.SearchVideoIDs(context.Background(), "cats", 10, "")
	if !errors.Is(err, keypool.ErrAllKeysExhausted) {
		t.Fatalf("SearchVideoIDs() error = %v, want ErrAllKeysExhausted", err)
	}
	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
}
