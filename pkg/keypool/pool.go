package keypool

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for key pool operations.
var (
	ytKeyRotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_key_rotations_total",
		Help: "Total key rotations by reason",
	}, []string{"reason"})

	ytKeysRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yt_keys_remaining",
		Help: "Number of non-exhausted API keys in the pool",
	})

	ytCursorPersistErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yt_cursor_persist_errors_total",
		Help: "Total failures to persist the rotation cursor",
	})
)

// Pool holds the ordered API keys, the rotation cursor, and the set of
// exhausted key indices. All methods are safe for concurrent use; the
// exhausted set is memory-only and resets each process start, matching the
// daily quota semantics of the Data API.
type Pool struct {
	mu        sync.Mutex
	keys      []Key
	cursor    int
	exhausted map[int]struct{}
	loaded    bool

	// lastServed is the index Current handed out most recently, -1 before
	// the first call. A quota rotation marks this index, so the exhaustion
	// always lands on the key that actually hit the quota, even when the
	// cursor has moved past it in the meantime.
	lastServed int

	store  StateStore
	logger zerolog.Logger
}

// New creates an empty pool backed by the given state store. Load must be
// called exactly once before Current or Rotate.
func New(store StateStore, logger zerolog.Logger) *Pool {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Pool{
		exhausted:  make(map[int]struct{}),
		lastServed: -1,
		store:      store,
		logger:     logger.With().Str("component", "keypool").Logger(),
	}
}

// Load merges all sources into the ordered key list, removing exact-value
// duplicates while keeping the first occurrence, and restores the rotation
// cursor from the state store. An empty merge fails with
// ErrNoKeysConfigured.
func (p *Pool) Load(ctx context.Context, sources ...Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return nil
	}

	seen := make(map[string]struct{})
	for _, src := range sources {
		keys, err := src.Keys(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Key source failed, continuing with remaining sources")
			continue
		}
		for _, k := range keys {
			if k.Value == "" {
				continue
			}
			if _, dup := seen[k.Value]; dup {
				continue
			}
			seen[k.Value] = struct{}{}
			p.keys = append(p.keys, k)
		}
	}

	if len(p.keys) == 0 {
		return ErrNoKeysConfigured
	}

	cursor, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to load rotation cursor, starting at 0")
		cursor = 0
	}
	if cursor < 0 || cursor >= len(p.keys) {
		cursor = 0
	}
	p.cursor = cursor
	p.loaded = true

	ytKeysRemaining.Set(float64(len(p.keys)))

	p.logger.Info().
		Int("keys", len(p.keys)).
		Int("cursor", p.cursor).
		Msg("Key pool loaded")

	return nil
}

// Current returns the first non-exhausted key at or after the cursor and
// normalizes the cursor onto the served index, so a later quota rotation
// marks the key that was actually used. Returns ErrAllKeysExhausted once
// every index is exhausted.
func (p *Pool) Current(ctx context.Context) (Key, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.keys)
	if n == 0 || len(p.exhausted) >= n {
		return Key{}, ErrAllKeysExhausted
	}

	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		if _, dead := p.exhausted[idx]; dead {
			continue
		}
		p.cursor = idx
		p.lastServed = idx
		p.keys[idx].LastUsedAt = time.Now()
		return p.keys[idx], nil
	}

	return Key{}, ErrAllKeysExhausted
}

// Rotate advances the cursor to the next index. ReasonQuotaExceeded marks
// the last-served key exhausted first and advances from there, so racing
// callers that both obtained the same key cannot exhaust a key that was
// never tried. The new cursor is persisted best-effort: a store failure is
// logged and never fails the rotation.
func (p *Pool) Rotate(ctx context.Context, reason RotateReason) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.keys)
	if n == 0 {
		return
	}

	if reason == ReasonQuotaExceeded {
		target := p.cursor
		if p.lastServed >= 0 {
			target = p.lastServed
		}
		if _, dead := p.exhausted[target]; !dead {
			p.exhausted[target] = struct{}{}
			p.logger.Warn().
				Str("key", p.keys[target].Masked()).
				Int("remaining", n-len(p.exhausted)).
				Msg("API key quota exhausted")
		}
		p.cursor = target
	}

	p.cursor = (p.cursor + 1) % n

	ytKeyRotationsTotal.WithLabelValues(string(reason)).Inc()
	ytKeysRemaining.Set(float64(n - len(p.exhausted)))

	if err := p.store.Save(ctx, p.cursor); err != nil {
		ytCursorPersistErrorsTotal.Inc()
		p.logger.Warn().Err(err).Int("cursor", p.cursor).Msg("Failed to persist rotation cursor")
	}

	p.logger.Debug().
		Int("cursor", p.cursor).
		Str("reason", string(reason)).
		Msg("Rotated key pool cursor")
}

// Remaining returns the number of non-exhausted keys. The request executor
// captures this once per call to bound its rotate-and-retry loop.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys) - len(p.exhausted)
}

// Size returns the total number of loaded keys.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Cursor returns the current cursor index.
func (p *Pool) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}
