package keypool

import (
	"context"
	"os"
	"strings"
)

// Source yields API key candidates during Load.
type Source interface {
	Keys(ctx context.Context) ([]Key, error)
}

// EnvSource reads a single key from one environment variable.
type EnvSource struct {
	Var string
}

// Keys returns at most one key.
func (s EnvSource) Keys(ctx context.Context) ([]Key, error) {
	v := strings.TrimSpace(os.Getenv(s.Var))
	if v == "" {
		return nil, nil
	}
	return []Key{{Value: v, Origin: OriginEnvironment}}, nil
}

// EnvListSource reads a comma-separated list of keys from one environment
// variable.
type EnvListSource struct {
	Var string
}

// Keys splits the variable on commas, dropping empty entries.
func (s EnvListSource) Keys(ctx context.Context) ([]Key, error) {
	raw := os.Getenv(s.Var)
	if raw == "" {
		return nil, nil
	}
	var keys []Key
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keys = append(keys, Key{Value: part, Origin: OriginEnvironment})
	}
	return keys, nil
}

// ActiveKeyLister is the slice of the operator key store the pool consumes:
// enabled keys as plain strings, in the store's priority order.
type ActiveKeyLister interface {
	ActiveKeys(ctx context.Context) ([]string, error)
}

// StoreSource adapts an ActiveKeyLister into a Source.
type StoreSource struct {
	Store ActiveKeyLister
}

// Keys returns the store's active keys tagged with OriginStore.
func (s StoreSource) Keys(ctx context.Context) ([]Key, error) {
	values, err := s.Store.ActiveKeys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]Key, 0, len(values))
	for _, v := range values {
		keys = append(keys, Key{Value: v, Origin: OriginStore})
	}
	return keys, nil
}

// FuncSource wraps a plain function as a Source, mainly for tests.
type FuncSource func(ctx context.Context) ([]Key, error)

// Keys invokes the wrapped function.
func (f FuncSource) Keys(ctx context.Context) ([]Key, error) {
	return f(ctx)
}

// StaticSource yields a fixed list of key values, mainly for tests.
func StaticSource(origin Origin, values ...string) Source {
	return FuncSource(func(ctx context.Context) ([]Key, error) {
		keys := make([]Key, 0, len(values))
		for _, v := range values {
			keys = append(keys, Key{Value: v, Origin: origin})
		}
		return keys, nil
	})
}

// FromEnvironment returns the default environment sources, single key first.
func FromEnvironment() []Source {
	return []Source{
		EnvSource{Var: "YOUTUBE_API_KEY"},
		EnvListSource{Var: "YOUTUBE_API_KEYS"},
	}
}
