// Package keystore persists operator-managed API keys in a local SQLite
// database. It is the credential-storage collaborator of the key pool: the
// pool consumes ActiveKeys, everything else serves the management CLI.
package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Common errors returned by the store.
var (
	// ErrDuplicateKey is returned by Add when the key value already exists.
	ErrDuplicateKey = errors.New("API key already stored")

	// ErrKeyNotFound is returned when no row matches the given id.
	ErrKeyNotFound = errors.New("API key not found")
)

// Record is one stored key with its metadata. Value is masked by List;
// only ActiveKeys hands out raw values.
type Record struct {
	ID         int64
	Value      string
	Name       string
	Active     bool
	Priority   int
	LastUsedAt string
	CreatedAt  string
	UpdatedAt  string
}

// Store is a SQLite-backed key store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	api_key TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	priority INTEGER NOT NULL DEFAULT 0,
	last_used_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Open creates or opens the key database at path. WAL mode and a busy
// timeout keep concurrent CLI invocations from tripping over each other;
// the write path is limited to a single connection.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open key database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping key database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create api_keys table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a new key. The value is trimmed; empty values and duplicates
// are rejected. An empty name gets a generated one.
func (s *Store) Add(ctx context.Context, value, name string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("API key value is empty")
	}

	now := time.Now().Format(time.RFC3339)
	if name == "" {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_keys`).Scan(&count); err != nil {
			return 0, fmt.Errorf("count keys: %w", err)
		}
		name = fmt.Sprintf("API Key %d", count+1)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		value, name, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("insert key: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("key id: %w", err)
	}
	return id, nil
}

// Remove deletes a key by id.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete key %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete key %d: %w", id, err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// SetActive enables or disables a key.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	return s.update(ctx, id, `is_active = ?`, boolToInt(active))
}

// Rename changes a key's display name.
func (s *Store) Rename(ctx context.Context, id int64, name string) error {
	return s.update(ctx, id, `name = ?`, name)
}

func (s *Store) update(ctx context.Context, id int64, setClause string, arg any) error {
	now := time.Now().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET `+setClause+`, updated_at = ? WHERE id = ?`,
		arg, now, id)
	if err != nil {
		return fmt.Errorf("update key %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update key %d: %w", id, err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// UpdateLastUsed stamps the key matching the given raw value.
func (s *Store) UpdateLastUsed(ctx context.Context, value string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE api_key = ?`, now, value)
	if err != nil {
		return fmt.Errorf("update last used: %w", err)
	}
	return nil
}

// List returns every stored key with the value masked, ordered by priority
// then creation time.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, api_key, name, is_active, priority, COALESCE(last_used_at, ''), created_at, updated_at
		FROM api_keys
		ORDER BY priority ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var active int
		if err := rows.Scan(&r.ID, &r.Value, &r.Name, &active, &r.Priority, &r.LastUsedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		r.Active = active != 0
		r.Value = maskValue(r.Value)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return records, nil
}

// ActiveKeys returns the raw values of enabled keys, ordered by priority
// then creation time. This is the slice the key pool loads from.
func (s *Store) ActiveKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT api_key FROM api_keys
		WHERE is_active = 1
		ORDER BY priority ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("active keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan key value: %w", err)
		}
		keys = append(keys, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key values: %w", err)
	}
	return keys, nil
}

// ImportFromString adds every key of a comma-separated list, skipping
// blanks and duplicates, and returns the number added.
func (s *Store) ImportFromString(ctx context.Context, keys string) (int, error) {
	added := 0
	for i, part := range strings.Split(keys, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		_, err := s.Add(ctx, part, fmt.Sprintf("Imported Key %d", i+1))
		if errors.Is(err, ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Count returns total and active key counts.
func (s *Store) Count(ctx context.Context) (total, active int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM api_keys`).Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("count keys: %w", err)
	}
	return total, active, nil
}

// maskValue hides all but the edges of a key value for listings.
func maskValue(v string) string {
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
