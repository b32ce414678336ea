// Package keypool manages the pool of YouTube Data API keys: ordered
// candidates, a persisted rotation cursor, and the process-lifetime set of
// keys whose daily quota is exhausted.
package keypool

import (
	"errors"
	"time"
)

// Common errors returned by the pool.
var (
	// ErrNoKeysConfigured is returned by Load when no source yields a key.
	ErrNoKeysConfigured = errors.New("no API keys configured")

	// ErrAllKeysExhausted is returned when every key in the pool has hit
	// its quota within this process lifetime.
	ErrAllKeysExhausted = errors.New("all API keys exhausted")
)

// Origin identifies where a key was configured.
type Origin string

const (
	// OriginEnvironment marks keys read from environment variables.
	OriginEnvironment Origin = "environment"

	// OriginStore marks keys supplied by the operator key store.
	OriginStore Origin = "store"
)

// Key is a single API key candidate. The raw Value is only ever attached to
// outgoing requests; logs must use Masked().
type Key struct {
	Value      string
	Origin     Origin
	LastUsedAt time.Time
}

// Masked returns a log-safe form of the key value.
func (k Key) Masked() string {
	if len(k.Value) <= 8 {
		return "****"
	}
	return k.Value[:4] + "..." + k.Value[len(k.Value)-4:]
}

// RotateReason explains why the cursor is being advanced.
type RotateReason string

const (
	// ReasonQuotaExceeded marks the current key exhausted before advancing.
	ReasonQuotaExceeded RotateReason = "quota_exceeded"

	// ReasonAdministrative advances the cursor without exhausting the
	// current key (proactive load spreading).
	ReasonAdministrative RotateReason = "administrative"
)
